package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"furnibles/internal/domain"
	"furnibles/internal/repos"

	"github.com/google/uuid"
)

// Timestamps are stored in the CURRENT_TIMESTAMP text format so SQL string
// comparison against expires_at stays correct.
const sqlTime = "2006-01-02 15:04:05"

type DownloadService struct {
	Tokens  *repos.TokenRepo
	Prods   *repos.ProductRepo
	Limit   int
	TTLDays int
}

func NewDownloadService(tokens *repos.TokenRepo, prods *repos.ProductRepo, limit, ttlDays int) *DownloadService {
	if limit <= 0 {
		limit = 5
	}
	if ttlDays <= 0 {
		ttlDays = 30
	}
	return &DownloadService{Tokens: tokens, Prods: prods, Limit: limit, TTLDays: ttlDays}
}

// newTokenString draws 32 random bytes (256 bits) and encodes them
// URL-safe. Uniqueness is additionally enforced by the storage layer's
// unique index; a collision there is retried by the caller, not fatal.
func newTokenString() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure means the host is broken
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// MintForItems builds one token per purchased line item. The rows are
// persisted by the order completion transaction, not here, so the order
// can never be COMPLETED with a partial token set.
func (s *DownloadService) MintForItems(order domain.Order, items []domain.OrderItem, completedAt time.Time) []domain.DownloadToken {
	expires := completedAt.AddDate(0, 0, s.TTLDays).UTC().Format(sqlTime)
	created := completedAt.UTC().Format(sqlTime)
	out := make([]domain.DownloadToken, 0, len(items))
	for _, it := range items {
		out = append(out, domain.DownloadToken{
			ID:            uuid.NewString(),
			Token:         newTokenString(),
			OrderID:       order.ID,
			ProductID:     it.ProductID,
			BuyerID:       order.BuyerID,
			DownloadLimit: s.Limit,
			ExpiresAt:     expires,
			IsActive:      true,
			CreatedAt:     created,
		})
	}
	return out
}

// CheckAndConsume validates a presented token and spends one download.
// The increment is atomic with the limit check (single conditional UPDATE);
// when it refuses, a follow-up read classifies the exact reason so the
// caller can tell re-purchase from contact-support cases apart.
func (s *DownloadService) CheckAndConsume(token, ip, userAgent string) (string, error) {
	now := time.Now().UTC().Format(sqlTime)

	ok, err := s.Tokens.Consume(token, now, ip, userAgent)
	if err != nil {
		return "", err
	}
	if !ok {
		t, err := s.Tokens.ByToken(token)
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrTokenNotFound
		}
		if err != nil {
			return "", err
		}
		switch {
		case !t.IsActive:
			return "", domain.ErrTokenRevoked
		case t.ExpiresAt <= now:
			return "", domain.ErrTokenExpired
		case t.DownloadCount >= t.DownloadLimit:
			return "", domain.ErrDownloadLimitExceeded
		default:
			// lost a race with a state change between UPDATE and SELECT
			return "", domain.ErrDownloadLimitExceeded
		}
	}

	t, err := s.Tokens.ByToken(token)
	if err != nil {
		return "", err
	}
	p, err := s.Prods.Get(t.ProductID)
	if err != nil {
		return "", err
	}
	return p.FileRef, nil
}

// Revoke permanently deactivates a token (admin or seller action).
func (s *DownloadService) Revoke(tokenID string) error {
	ok, err := s.Tokens.Revoke(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		// missing or already revoked
		if _, err := s.Tokens.ByID(tokenID); errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTokenNotFound
		}
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *DownloadService) ListForBuyer(buyerID string) ([]domain.DownloadToken, error) {
	return s.Tokens.ByBuyer(buyerID)
}
