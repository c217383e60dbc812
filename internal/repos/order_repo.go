package repos

import (
	"fmt"

	"furnibles/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// nextOrderNumber bumps the per-day counter and formats ORD-YYYYMMDD-NNN.
// The upsert-and-return is a single statement, so two concurrent checkouts
// can never draw the same sequence.
func nextOrderNumber(tx *sqlx.Tx, day string) (string, error) {
	var seq int
	err := tx.Get(&seq, `
		INSERT INTO order_counters(day, seq) VALUES(?, 1)
		ON CONFLICT(day) DO UPDATE SET seq = seq + 1
		RETURNING seq
	`, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%03d", day, seq), nil
}

// CreateWithItems persists the order header and line items and clears the
// buyer's cart in one transaction. Either everything lands or nothing does.
// The order number is minted inside the same transaction and written back
// onto o.
func (r *OrderRepo) CreateWithItems(o *domain.Order, items []domain.OrderItem, day string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	num, err := nextOrderNumber(tx, day)
	if err != nil {
		return err
	}
	o.OrderNumber = num

	if _, err := tx.Exec(`
	  INSERT INTO orders(id,order_number,buyer_id,status,subtotal,platform_fee,total,currency,created_at)
	  VALUES(?,?,?,?,?,?,?,?,?)
	`, o.ID, o.OrderNumber, o.BuyerID, o.Status, o.Subtotal, o.PlatformFee, o.Total, o.Currency, o.CreatedAt); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id,product_id,seller_id,unit_price,qty,title_snapshot,description_snapshot)
		  VALUES(?,?,?,?,?,?,?)
		`, o.ID, it.ProductID, it.SellerID, it.UnitPrice, it.Qty, it.TitleSnapshot, it.DescriptionSnapshot); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE buyer_id = ?`, o.BuyerID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `
	  SELECT id,order_number,buyer_id,status,subtotal,platform_fee,total,currency,
	         payment_intent_ref,payment_status,provider_error,created_at,paid_at,completed_at
	  FROM orders WHERE id = ?
	`, id)
	return o, err
}

func (r *OrderRepo) ItemsOf(orderID string) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.db.Select(&out, `
	  SELECT order_id,product_id,seller_id,unit_price,qty,title_snapshot,
	         COALESCE(description_snapshot,'') AS description_snapshot
	  FROM order_items WHERE order_id = ?
	  ORDER BY product_id
	`, orderID)
	return out, err
}

func (r *OrderRepo) ListByBuyer(buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT id,order_number,buyer_id,status,subtotal,platform_fee,total,currency,
	         payment_intent_ref,payment_status,provider_error,created_at,paid_at,completed_at
	  FROM orders WHERE buyer_id = ?
	  ORDER BY created_at DESC
	`, buyerID)
	return out, err
}

// MarkProcessing applies PENDING -> PROCESSING. Returns false when the order
// was not in PENDING (late or duplicate gateway event).
func (r *OrderRepo) MarkProcessing(orderID, intentRef string) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE orders SET status='PROCESSING', payment_intent_ref=?, payment_status='processing'
	  WHERE id=? AND status='PENDING'
	`, intentRef, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompleteAndMint applies {PENDING,PROCESSING} -> COMPLETED and inserts the
// pre-generated download tokens as one atomic unit. The webhook event row is
// written first so a redelivered event id short-circuits; the status guard
// additionally stops a semantically duplicate event under a fresh id. Either
// the order completes with all its tokens or nothing changes.
func (r *OrderRepo) CompleteAndMint(orderID, intentRef, eventID, now string, tokens []domain.DownloadToken) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT OR IGNORE INTO webhook_events(event_id,event_type,order_id) VALUES(?,?,?)`,
		eventID, "payment.succeeded", orderID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil // event already processed
	}

	res, err = tx.Exec(`
	  UPDATE orders
	  SET status='COMPLETED', payment_status='succeeded', payment_intent_ref=?, paid_at=?, completed_at=?
	  WHERE id=? AND status IN ('PENDING','PROCESSING')
	`, intentRef, now, now, orderID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// keep the dedupe row: the event is acknowledged, just not applied
		return false, tx.Commit()
	}

	for _, t := range tokens {
		if _, err := tx.Exec(`
		  INSERT INTO download_tokens(id,token,order_id,product_id,buyer_id,download_limit,download_count,expires_at,is_active,created_at)
		  VALUES(?,?,?,?,?,?,0,?,1,?)
		`, t.ID, t.Token, t.OrderID, t.ProductID, t.BuyerID, t.DownloadLimit, t.ExpiresAt, t.CreatedAt); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// MarkFailed applies {PENDING,PROCESSING} -> FAILED and records the provider
// diagnostics for support. No tokens are minted and the cart is not restored.
func (r *OrderRepo) MarkFailed(orderID, intentRef, eventID, errCode, errMsg string) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT OR IGNORE INTO webhook_events(event_id,event_type,order_id) VALUES(?,?,?)`,
		eventID, "payment.failed", orderID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	res, err = tx.Exec(`
	  UPDATE orders
	  SET status='FAILED', payment_status='failed', payment_intent_ref=?, provider_error=?
	  WHERE id=? AND status IN ('PENDING','PROCESSING')
	`, intentRef, errCode+": "+errMsg, orderID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, tx.Commit()
	}
	return true, tx.Commit()
}

// Cancel applies any non-terminal state -> CANCELLED.
func (r *OrderRepo) Cancel(orderID string) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE orders SET status='CANCELLED'
	  WHERE id=? AND status IN ('PENDING','PROCESSING')
	`, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BuyerHasCompleted reports whether the buyer holds a COMPLETED order with
// the given id containing the given plan. Backs review eligibility.
func (r *OrderRepo) BuyerHasCompleted(orderID, buyerID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*)
	  FROM orders o JOIN order_items oi ON oi.order_id = o.id
	  WHERE o.id=? AND o.buyer_id=? AND o.status='COMPLETED' AND oi.product_id=?
	`, orderID, buyerID, productID)
	return n > 0, err
}

// SaleRow is one sold line item from the seller's perspective. Payout is the
// seller share after the platform fee deduction.
type SaleRow struct {
	OrderNumber string  `db:"order_number" json:"order_number"`
	ProductID   string  `db:"product_id" json:"product_id"`
	Title       string  `db:"title_snapshot" json:"title"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	Qty         int     `db:"qty" json:"qty"`
	CompletedAt string  `db:"completed_at" json:"completed_at"`
}

func (r *OrderRepo) SellerSales(sellerID string) ([]SaleRow, error) {
	var out []SaleRow
	err := r.db.Select(&out, `
	  SELECT o.order_number, oi.product_id, oi.title_snapshot, oi.unit_price, oi.qty,
	         COALESCE(o.completed_at,'') AS completed_at
	  FROM order_items oi JOIN orders o ON o.id = oi.order_id
	  WHERE oi.seller_id = ? AND o.status = 'COMPLETED'
	  ORDER BY o.completed_at DESC
	`, sellerID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT id,order_number,buyer_id,status,subtotal,platform_fee,total,currency,
	         payment_intent_ref,payment_status,provider_error,created_at,paid_at,completed_at
	  FROM orders
	  ORDER BY created_at DESC
	  LIMIT ?
	`, limit)
	return out, err
}
