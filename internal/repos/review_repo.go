package repos

import (
	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewCols = `
    id, order_id, product_id, buyer_id, seller_id, rating,
    COALESCE(title,'') AS title, comment, COALESCE(pros,'') AS pros,
    COALESCE(cons,'') AS cons, status, is_verified,
    helpful_count, not_helpful_count, created_at`

func (r *ReviewRepo) Create(rv *domain.Review) error {
	_, err := r.db.Exec(`
	  INSERT INTO reviews(id,order_id,product_id,buyer_id,seller_id,rating,title,comment,pros,cons,status,is_verified,created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, rv.ID, rv.OrderID, rv.ProductID, rv.BuyerID, rv.SellerID, rv.Rating, rv.Title, rv.Comment, rv.Pros, rv.Cons, rv.Status, rv.IsVerified)
	return err
}

func (r *ReviewRepo) Get(id string) (domain.Review, error) {
	var rv domain.Review
	err := r.db.Get(&rv, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id)
	return rv, err
}

// Exists reports whether the (order, plan, buyer) triple already has a
// review. The UNIQUE constraint is the real guard; this gives the caller a
// clean ConflictError before hitting it.
func (r *ReviewRepo) Exists(orderID, productID, buyerID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM reviews WHERE order_id=? AND product_id=? AND buyer_id=?`,
		orderID, productID, buyerID)
	return n > 0, err
}

func (r *ReviewRepo) ListByProduct(productID string, limit, offset int) ([]domain.Review, error) {
	var out []domain.Review
	err := r.db.Select(&out, `
	  SELECT `+reviewCols+` FROM reviews
	  WHERE product_id = ? AND status = 'PUBLISHED'
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, productID, limit, offset)
	return out, err
}

func (r *ReviewRepo) ListFlagged(limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Review
	err := r.db.Select(&out, `
	  SELECT `+reviewCols+` FROM reviews
	  WHERE status = 'FLAGGED'
	  ORDER BY created_at
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *ReviewRepo) SetStatus(id, status string) (bool, error) {
	res, err := r.db.Exec(`UPDATE reviews SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertVote writes the voter's latest vote and recomputes both counters
// from the full vote set in the same transaction. Recounting instead of
// incrementing keeps the counters drift-free.
func (r *ReviewRepo) UpsertVote(reviewID, userID, vote string) (helpful, notHelpful int, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(`
	  INSERT INTO review_votes(review_id,user_id,vote) VALUES(?,?,?)
	  ON CONFLICT(review_id,user_id) DO UPDATE SET vote = excluded.vote
	`, reviewID, userID, vote); err != nil {
		return 0, 0, err
	}

	if err = tx.Get(&helpful, `SELECT COUNT(*) FROM review_votes WHERE review_id=? AND vote='HELPFUL'`, reviewID); err != nil {
		return 0, 0, err
	}
	if err = tx.Get(&notHelpful, `SELECT COUNT(*) FROM review_votes WHERE review_id=? AND vote='NOT_HELPFUL'`, reviewID); err != nil {
		return 0, 0, err
	}

	if _, err = tx.Exec(`UPDATE reviews SET helpful_count=?, not_helpful_count=? WHERE id=?`,
		helpful, notHelpful, reviewID); err != nil {
		return 0, 0, err
	}

	return helpful, notHelpful, tx.Commit()
}

func (r *ReviewRepo) CreateResponse(resp *domain.ReviewResponse) error {
	_, err := r.db.Exec(`
	  INSERT INTO review_responses(review_id,seller_id,comment,created_at)
	  VALUES(?,?,?,CURRENT_TIMESTAMP)
	`, resp.ReviewID, resp.SellerID, resp.Comment)
	return err
}

func (r *ReviewRepo) ResponseOf(reviewID string) (domain.ReviewResponse, error) {
	var resp domain.ReviewResponse
	err := r.db.Get(&resp, `
	  SELECT review_id, seller_id, comment, created_at
	  FROM review_responses WHERE review_id = ?
	`, reviewID)
	return resp, err
}

func (r *ReviewRepo) HasResponse(reviewID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM review_responses WHERE review_id = ?`, reviewID)
	return n > 0, err
}

// Summary aggregates PUBLISHED reviews only.
func (r *ReviewRepo) Summary(productID string) (domain.RatingSummary, error) {
	var s domain.RatingSummary
	err := r.db.Get(&s, `
	  SELECT COALESCE(AVG(rating),0) AS average, COUNT(*) AS count
	  FROM reviews WHERE product_id = ? AND status = 'PUBLISHED'
	`, productID)
	return s, err
}
