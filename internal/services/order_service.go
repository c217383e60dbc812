package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"furnibles/internal/domain"
	applog "furnibles/internal/log"
	"furnibles/internal/repos"

	"github.com/google/uuid"
)

type OrderService struct {
	Carts     *repos.CartRepo
	Prods     *repos.ProductRepo
	Orders    *repos.OrderRepo
	Downloads *DownloadService
	Notify    Notifier
	FeePct    float64
}

func NewOrderService(carts *repos.CartRepo, prods *repos.ProductRepo, orders *repos.OrderRepo,
	downloads *DownloadService, notify Notifier, feePct float64) *OrderService {
	return &OrderService{Carts: carts, Prods: prods, Orders: orders, Downloads: downloads, Notify: notify, FeePct: feePct}
}

// Checkout converts the buyer's cart into a PENDING order. Every referenced
// plan is re-validated as purchasable first; a failure names the offending
// plan and nothing is created. Order + line items + cart clear are one
// transaction.
func (s *OrderService) Checkout(buyerID string) (domain.Order, error) {
	items, err := s.Carts.Items(buyerID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(items) == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}

	lines := make([]domain.OrderItem, 0, len(items))
	prices := make([]float64, 0, len(items))
	for _, it := range items {
		p, err := s.Prods.Get(it.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, &domain.ProductUnavailableError{ProductID: it.ProductID, Status: "MISSING"}
		}
		if err != nil {
			return domain.Order{}, err
		}
		if !p.Purchasable() {
			return domain.Order{}, &domain.ProductUnavailableError{ProductID: p.ID, Status: p.Status}
		}
		lines = append(lines, domain.OrderItem{
			ProductID:           p.ID,
			SellerID:            p.SellerID,
			UnitPrice:           it.UnitPriceSnapshot,
			Qty:                 it.Qty,
			TitleSnapshot:       p.Title,
			DescriptionSnapshot: p.Description,
		})
		for i := 0; i < it.Qty; i++ {
			prices = append(prices, it.UnitPriceSnapshot)
		}
	}

	now := time.Now().UTC()
	totals := ComputeTotals(prices, s.FeePct)
	order := domain.Order{
		ID:          uuid.NewString(),
		BuyerID:     buyerID,
		Status:      domain.OrderPending,
		Subtotal:    totals.Subtotal,
		PlatformFee: totals.PlatformFee,
		Total:       totals.Total,
		Currency:    "USD",
		CreatedAt:   now.Format(sqlTime),
	}

	if err := s.Orders.CreateWithItems(&order, lines, now.Format("20060102")); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// PaymentEvent is the gateway notification after signature verification.
// Delivery is at-least-once; handling must be idempotent on EventID and on
// the order's current status.
type PaymentEvent struct {
	EventID         string `json:"event_id"`
	Type            string `json:"type"` // processing | succeeded | failed
	PaymentIntentID string `json:"payment_intent_id"`
	OrderID         string `json:"order_id"`
	ErrCode         string `json:"error_code,omitempty"`
	ErrMsg          string `json:"error_message,omitempty"`
}

// HandlePaymentEvent drives the order state machine from gateway events.
// A redelivered "succeeded" for an already-COMPLETED order is a safe no-op;
// a "succeeded" for a FAILED or CANCELLED order is an InvalidStateTransition.
func (s *OrderService) HandlePaymentEvent(evt PaymentEvent) error {
	if evt.EventID == "" || evt.OrderID == "" {
		return &domain.ValidationError{Field: "event", Msg: "event_id and order_id are required"}
	}

	order, err := s.Orders.Get(evt.OrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	switch evt.Type {
	case "processing":
		// PENDING -> PROCESSING; a repeat while already PROCESSING is a
		// no-op, but a settled order rejects the transition
		applied, err := s.Orders.MarkProcessing(order.ID, evt.PaymentIntentID)
		if err != nil {
			return err
		}
		if !applied && order.Terminal() {
			return domain.ErrInvalidStateTransition
		}
		return nil

	case "succeeded":
		return s.complete(order, evt)

	case "failed":
		applied, err := s.Orders.MarkFailed(order.ID, evt.PaymentIntentID, evt.EventID, evt.ErrCode, evt.ErrMsg)
		if err != nil {
			return err
		}
		if !applied && order.Status != domain.OrderFailed {
			if order.Terminal() {
				return domain.ErrInvalidStateTransition
			}
		}
		return nil

	default:
		return &domain.ValidationError{Field: "type", Msg: "unknown payment event type " + evt.Type}
	}
}

// complete applies the COMPLETED transition: stamp paid/completed, mint one
// download token per line item in the same transaction, then fan out
// notifications best-effort. Token minting retries on the (astronomically
// rare) token-string collision.
func (s *OrderService) complete(order domain.Order, evt PaymentEvent) error {
	items, err := s.Orders.ItemsOf(order.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var applied bool
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		tokens := s.Downloads.MintForItems(order, items, now)
		applied, lastErr = s.Orders.CompleteAndMint(order.ID, evt.PaymentIntentID, evt.EventID, now.Format(sqlTime), tokens)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("complete order %s: %w", order.ID, lastErr)
	}

	if !applied {
		cur, err := s.Orders.Get(order.ID)
		if err != nil {
			return err
		}
		if cur.Status == domain.OrderCompleted {
			return nil // duplicate delivery, tokens already minted exactly once
		}
		return domain.ErrInvalidStateTransition
	}

	s.fanOut(order, items)
	return nil
}

// fanOut sends one "order completed" to the buyer and one "new sale" per
// distinct seller. Failures are logged and swallowed: notifications are
// best-effort, never correctness-critical.
func (s *OrderService) fanOut(order domain.Order, items []domain.OrderItem) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.Notify(order.BuyerID, "order_completed", "Your plans are ready",
		fmt.Sprintf("Order %s is complete. Your downloads are available.", order.OrderNumber),
		map[string]any{"order_id": order.ID}); err != nil {
		applog.Error(nil, "notify.buyer.fail", err, map[string]any{"order_id": order.ID})
	}

	seen := map[string]struct{}{}
	for _, it := range items {
		if _, ok := seen[it.SellerID]; ok {
			continue
		}
		seen[it.SellerID] = struct{}{}
		if err := s.Notify.Notify(it.SellerID, "new_sale", "You made a sale",
			fmt.Sprintf("Order %s includes your plan %q.", order.OrderNumber, it.TitleSnapshot),
			map[string]any{"order_id": order.ID, "product_id": it.ProductID}); err != nil {
			applog.Error(nil, "notify.seller.fail", err, map[string]any{"order_id": order.ID, "seller_id": it.SellerID})
		}
	}
}

// Cancel moves a non-terminal order to CANCELLED. Terminal orders reject
// the transition.
func (s *OrderService) Cancel(orderID, buyerID string) error {
	order, err := s.Orders.Get(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if buyerID != "" && order.BuyerID != buyerID {
		return domain.ErrNotFound // don't reveal other buyers' orders
	}
	applied, err := s.Orders.Cancel(orderID)
	if err != nil {
		return err
	}
	if !applied {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (s *OrderService) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	o, err := s.Orders.Get(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, nil, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, nil, err
	}
	items, err := s.Orders.ItemsOf(orderID)
	return o, items, err
}

func (s *OrderService) History(buyerID string) ([]domain.Order, error) {
	return s.Orders.ListByBuyer(buyerID)
}
