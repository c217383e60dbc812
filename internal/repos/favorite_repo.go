package repos

import (
	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type FavoriteRepo struct{ db *sqlx.DB }

func NewFavoriteRepo(db *sqlx.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

func (r *FavoriteRepo) Save(buyerID, productID string) error {
	_, err := r.db.Exec(`
	  INSERT INTO favorites(buyer_id,product_id,created_at)
	  VALUES(?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(buyer_id,product_id) DO NOTHING
	`, buyerID, productID)
	return err
}

func (r *FavoriteRepo) Unsave(buyerID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM favorites WHERE buyer_id=? AND product_id=?`, buyerID, productID)
	return err
}

func (r *FavoriteRepo) List(buyerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT p.id, p.category_id, p.seller_id, p.title, p.description, p.price, p.file_ref,
	         COALESCE(p.images_json,'[]') AS images_json, p.status,
	         p.created_at, COALESCE(p.updated_at,'') AS updated_at
	  FROM favorites f JOIN products p ON p.id = f.product_id
	  WHERE f.buyer_id = ? AND p.status = 'PUBLISHED'
	  ORDER BY f.created_at DESC
	`, buyerID)
	return out, err
}
