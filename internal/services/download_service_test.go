package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"furnibles/internal/domain"
)

func TestDownload_ConsumeUpToLimit(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-bookshelf")

	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Fatalf("want 1 token, got %d", len(tokens))
	}
	tok := tokens[0]

	for i := 0; i < 5; i++ {
		fileRef, err := e.downloads.CheckAndConsume(tok.Token, "203.0.113.7", "test-agent")
		if err != nil {
			t.Fatalf("download %d: %v", i+1, err)
		}
		if fileRef != "plans/plan-bookshelf/v2.pdf" {
			t.Fatalf("bad file ref %q", fileRef)
		}
	}

	// sixth attempt is over the limit
	if _, err := e.downloads.CheckAndConsume(tok.Token, "203.0.113.7", "test-agent"); !errors.Is(err, domain.ErrDownloadLimitExceeded) {
		t.Fatalf("want ErrDownloadLimitExceeded, got %v", err)
	}

	got, err := e.tokens.ByToken(tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.DownloadCount != 5 {
		t.Fatalf("want count 5, got %d", got.DownloadCount)
	}
	if got.LastIP != "203.0.113.7" || got.LastDownloadAt == nil {
		t.Fatalf("audit fields not recorded: %+v", got)
	}
}

func TestDownload_UnknownToken(t *testing.T) {
	e := newEnv(t)
	if _, err := e.downloads.CheckAndConsume("no-such-token", "", ""); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestDownload_Revoked(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-adirondack")
	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	tok := tokens[0]

	if err := e.downloads.Revoke(tok.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.downloads.CheckAndConsume(tok.Token, "", ""); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("want ErrTokenRevoked, got %v", err)
	}
	// revoking twice reports the token is already dead
	if err := e.downloads.Revoke(tok.ID); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("want ErrTokenRevoked, got %v", err)
	}
	if err := e.downloads.Revoke("t-missing"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestDownload_Expired(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-bob", "plan-farm-table")
	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	tok := tokens[0]

	if _, err := e.db.Exec(`UPDATE download_tokens SET expires_at='2000-01-01 00:00:00' WHERE id=?`, tok.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.downloads.CheckAndConsume(tok.Token, "", ""); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestDownload_ExpiryIsThirtyDaysFromCompletion(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-farm-table")
	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	tok := tokens[0]

	const layout = "2006-01-02 15:04:05"
	created, err := time.Parse(layout, tok.CreatedAt)
	if err != nil {
		t.Fatal(err)
	}
	expires, err := time.Parse(layout, tok.ExpiresAt)
	if err != nil {
		t.Fatal(err)
	}
	if d := expires.Sub(created); d != 30*24*time.Hour {
		t.Fatalf("want 30d validity, got %v", d)
	}
}

func TestDownload_ConcurrentConsume(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-adirondack")
	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	tok := tokens[0]

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = e.downloads.CheckAndConsume(tok.Token, "", "")
		}(i)
	}
	wg.Wait()

	var okCount, limitCount int
	for _, err := range results {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, domain.ErrDownloadLimitExceeded):
			limitCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// exactly the limit succeeds no matter the interleaving
	if okCount != 5 || limitCount != 3 {
		t.Fatalf("want 5 ok / 3 refused, got %d / %d", okCount, limitCount)
	}

	got, err := e.tokens.ByToken(tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.DownloadCount != 5 {
		t.Fatalf("count overshot the limit: %d", got.DownloadCount)
	}
}
