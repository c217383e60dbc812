package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"os"
	"strings"
	"testing"

	applog "furnibles/internal/log"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	stdlog.SetOutput(&buf)
	t.Cleanup(func() { stdlog.SetOutput(os.Stderr) })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	raw := strings.TrimSpace(buf.String())
	i := strings.IndexByte(raw, '{')
	if i < 0 {
		t.Fatalf("no JSON object in log output: %q", raw)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw[i:]), &m); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return m
}

func TestAudit_PromotesIdentifiers(t *testing.T) {
	buf := capture(t)

	applog.Audit(nil, "order.complete", map[string]any{
		"order_id": "o-1",
		"event_id": "evt-42",
		"token_id": "tok-7",
		"user_id":  "u-alice",
		"total":    275.0,
	})

	m := lastLine(t, buf)
	if m["level"] != "audit" || m["action"] != "order.complete" {
		t.Fatalf("level/action wrong: %v", m)
	}
	for k, want := range map[string]string{
		"order_id": "o-1", "event_id": "evt-42", "token_id": "tok-7", "user_id": "u-alice",
	} {
		if m[k] != want {
			t.Fatalf("%s: want %q, got %v", k, want, m[k])
		}
	}
	fields, ok := m["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing: %v", m)
	}
	if _, leaked := fields["order_id"]; leaked {
		t.Fatal("order_id should be promoted out of fields")
	}
	if fields["total"] != 275.0 {
		t.Fatalf("total: got %v", fields["total"])
	}
}

func TestError_NoFields(t *testing.T) {
	buf := capture(t)

	applog.Error(nil, "notify.buyer.fail", errors.New("smtp down"), nil)

	m := lastLine(t, buf)
	if m["level"] != "error" || m["err"] != "smtp down" {
		t.Fatalf("unexpected line: %v", m)
	}
	if _, ok := m["fields"]; ok {
		t.Fatal("fields should be omitted when empty")
	}
}
