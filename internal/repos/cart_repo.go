package repos

import (
	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// UpsertItem adds a plan to the buyer's cart. The price snapshot is written
// on first insert only: bumping the quantity later keeps the original
// snapshot.
func (r *CartRepo) UpsertItem(buyerID, productID string, qty int, priceSnapshot float64) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(buyer_id,product_id,unit_price_snapshot,qty,added_at)
		VALUES(?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(buyer_id,product_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty
	`, buyerID, productID, priceSnapshot, qty)
	return err
}

func (r *CartRepo) Items(buyerID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	err := r.db.Select(&out, `
	  SELECT buyer_id, product_id, unit_price_snapshot, qty, added_at
	  FROM cart_items
	  WHERE buyer_id = ?
	  ORDER BY added_at
	`, buyerID)
	return out, err
}

func (r *CartRepo) RemoveItem(buyerID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE buyer_id = ? AND product_id = ?`, buyerID, productID)
	return err
}

func (r *CartRepo) Clear(buyerID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE buyer_id = ?`, buyerID)
	return err
}
