package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Store resolves a purchased plan's file reference to something a client
// can fetch. Real object stores (S3 and friends) implement this with
// pre-signed URLs; the core never streams bytes itself.
type Store interface {
	SignURL(fileRef string) (string, error)
}

// LocalStore issues expiring HMAC-signed URLs under a base URL, enough for
// a single-node deployment and for tests.
type LocalStore struct {
	BaseURL string
	Key     []byte
	TTL     time.Duration
}

func NewLocalStore(baseURL, key string) *LocalStore {
	return &LocalStore{BaseURL: strings.TrimRight(baseURL, "/"), Key: []byte(key), TTL: 15 * time.Minute}
}

func (s *LocalStore) SignURL(fileRef string) (string, error) {
	if fileRef == "" {
		return "", fmt.Errorf("empty file ref")
	}
	exp := time.Now().Add(s.TTL).Unix()
	mac := hmac.New(sha256.New, s.Key)
	fmt.Fprintf(mac, "%s|%d", fileRef, exp)
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("%s/%s?exp=%d&sig=%s", s.BaseURL, fileRef, exp, sig), nil
}

// Verify checks a signed URL's exp/sig pair, for the handler that actually
// serves local files.
func (s *LocalStore) Verify(fileRef string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	mac := hmac.New(sha256.New, s.Key)
	fmt.Fprintf(mac, "%s|%d", fileRef, exp)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}
