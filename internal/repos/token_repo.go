package repos

import (
	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type TokenRepo struct{ db *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

const tokenCols = `
    id, token, order_id, product_id, buyer_id, download_limit, download_count,
    expires_at, is_active, created_at, last_download_at,
    COALESCE(last_ip,'') AS last_ip, COALESCE(last_user_agent,'') AS last_user_agent`

func (r *TokenRepo) ByToken(token string) (domain.DownloadToken, error) {
	var t domain.DownloadToken
	err := r.db.Get(&t, `SELECT `+tokenCols+` FROM download_tokens WHERE token = ?`, token)
	return t, err
}

func (r *TokenRepo) ByID(id string) (domain.DownloadToken, error) {
	var t domain.DownloadToken
	err := r.db.Get(&t, `SELECT `+tokenCols+` FROM download_tokens WHERE id = ?`, id)
	return t, err
}

func (r *TokenRepo) ByOrder(orderID string) ([]domain.DownloadToken, error) {
	var out []domain.DownloadToken
	err := r.db.Select(&out, `SELECT `+tokenCols+` FROM download_tokens WHERE order_id = ? ORDER BY product_id`, orderID)
	return out, err
}

func (r *TokenRepo) ByBuyer(buyerID string) ([]domain.DownloadToken, error) {
	var out []domain.DownloadToken
	err := r.db.Select(&out, `SELECT `+tokenCols+` FROM download_tokens WHERE buyer_id = ? ORDER BY created_at DESC`, buyerID)
	return out, err
}

// Consume is the single chokepoint that spends a download. The limit check
// and the increment are one conditional UPDATE, so two concurrent requests
// can never both pass the check and push the count past the limit.
func (r *TokenRepo) Consume(token, now, ip, userAgent string) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE download_tokens
	  SET download_count = download_count + 1,
	      last_download_at = ?, last_ip = ?, last_user_agent = ?
	  WHERE token = ?
	    AND is_active = 1
	    AND expires_at > ?
	    AND download_count < download_limit
	`, now, ip, userAgent, token, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Revoke deactivates a token permanently. There is no un-revoke.
func (r *TokenRepo) Revoke(id string) (bool, error) {
	res, err := r.db.Exec(`UPDATE download_tokens SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
