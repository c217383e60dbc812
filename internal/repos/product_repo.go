package repos

import (
	"strings"

	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, category_id, seller_id, title, description, price, file_ref,
    COALESCE(images_json,'[]') AS images_json, status,
    created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE category_id = ? AND status = 'PUBLISHED'
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) ListBySeller(sellerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE seller_id = ?
	  ORDER BY created_at DESC
	`, sellerID)
	return out, err
}

func (r *ProductRepo) Search(q, catID string, limit, offset int) ([]domain.Product, error) {
	where := `status = 'PUBLISHED'`
	args := []any{}
	if q != "" {
		pat := "%" + strings.ToLower(q) + "%"
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, pat, pat)
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}

	sql := `SELECT ` + productCols + ` FROM products WHERE ` + where + `
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, sql, args...)
	return out, err
}

func (r *ProductRepo) Create(p *domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id,category_id,seller_id,title,description,price,file_ref,images_json,status,created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.CategoryID, p.SellerID, p.Title, p.Description, p.Price, p.FileRef, p.ImagesJSON, p.Status)
	return err
}

func (r *ProductRepo) Update(p *domain.Product) error {
	_, err := r.db.Exec(`
	  UPDATE products
	  SET category_id=?, title=?, description=?, price=?, file_ref=?, images_json=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND seller_id=?
	`, p.CategoryID, p.Title, p.Description, p.Price, p.FileRef, p.ImagesJSON, p.ID, p.SellerID)
	return err
}

// SetStatus moves a plan between DRAFT/PUBLISHED/ARCHIVED (seller) or
// SUSPENDED (admin).
func (r *ProductRepo) SetStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE products SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	return err
}
