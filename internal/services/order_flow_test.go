package services_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"furnibles/internal/domain"
	"furnibles/internal/repos"
	"furnibles/internal/services"
)

// testDB opens a throwaway database with the full schema and seed data
// (demo categories, published plans, users alice/bob/admin).
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type env struct {
	db        *sqlx.DB
	orders    *repos.OrderRepo
	tokens    *repos.TokenRepo
	cart      *services.CartService
	order     *services.OrderService
	downloads *services.DownloadService
	reviews   *services.ReviewService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testDB(t)
	carts := repos.NewCartRepo(db)
	prods := repos.NewProductRepo(db)
	orders := repos.NewOrderRepo(db)
	tokens := repos.NewTokenRepo(db)
	reviews := repos.NewReviewRepo(db)

	downloads := services.NewDownloadService(tokens, prods, 5, 30)
	return &env{
		db:        db,
		orders:    orders,
		tokens:    tokens,
		cart:      services.NewCartService(carts, prods, 10),
		order:     services.NewOrderService(carts, prods, orders, downloads, services.LogNotifier{}, 10),
		downloads: downloads,
		reviews:   services.NewReviewService(reviews, orders, prods),
	}
}

var eventSeq int

func nextEvent() string {
	eventSeq++
	return fmt.Sprintf("evt-%04d", eventSeq)
}

// completedOrder runs a full purchase: cart, checkout, gateway success.
func (e *env) completedOrder(t *testing.T, buyerID string, planIDs ...string) domain.Order {
	t.Helper()
	for _, id := range planIDs {
		if err := e.cart.Add(buyerID, id, 1); err != nil {
			t.Fatal(err)
		}
	}
	order, err := e.order.Checkout(buyerID)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "succeeded", PaymentIntentID: "pi_" + order.ID, OrderID: order.ID,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestCheckout(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-alice", "plan-farm-table", 1); err != nil {
		t.Fatal(err)
	}
	if err := e.cart.Add("u-alice", "plan-adirondack", 1); err != nil {
		t.Fatal(err)
	}

	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.OrderPending {
		t.Fatalf("want PENDING, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("bad order number %q", order.OrderNumber)
	}
	// 150 + 100 at a 10% platform fee
	if order.Subtotal != 250 || order.PlatformFee != 25 || order.Total != 275 {
		t.Fatalf("bad totals: %+v", order)
	}
	if order.Currency != "USD" {
		t.Fatalf("want USD, got %s", order.Currency)
	}

	// checkout clears the cart atomically with order creation
	cv, err := e.cart.View("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Items) != 0 {
		t.Fatalf("cart should be empty, got %d items", len(cv.Items))
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t)
	_, err := e.order.Checkout("u-alice")
	if !errors.Is(err, domain.ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty, got %v", err)
	}
}

func TestCartAdd_RejectsUnpublishedPlan(t *testing.T) {
	e := newEnv(t)
	err := e.cart.Add("u-alice", "plan-workbench", 1) // seeded as DRAFT
	var pe *domain.ProductUnavailableError
	if !errors.As(err, &pe) {
		t.Fatalf("want ProductUnavailableError, got %v", err)
	}
	if pe.ProductID != "plan-workbench" || pe.Status != domain.ProductDraft {
		t.Fatalf("error should name the offending plan: %+v", pe)
	}
}

func TestPaymentFlow_SucceededMintsTokens(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-alice", "plan-farm-table", 1); err != nil {
		t.Fatal(err)
	}
	if err := e.cart.Add("u-alice", "plan-bookshelf", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "processing", PaymentIntentID: "pi_1", OrderID: order.ID,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderProcessing {
		t.Fatalf("want PROCESSING, got %s", got.Status)
	}

	if err := e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "succeeded", PaymentIntentID: "pi_1", OrderID: order.ID,
	}); err != nil {
		t.Fatal(err)
	}
	got, err = e.orders.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderCompleted {
		t.Fatalf("want COMPLETED, got %s", got.Status)
	}
	if got.PaidAt == nil || got.CompletedAt == nil {
		t.Fatalf("paid/completed stamps missing: %+v", got)
	}

	// one token per line item, minted in the completion transaction
	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 2 {
		t.Fatalf("want 2 tokens, got %d", len(tokens))
	}
	for _, tok := range tokens {
		if tok.DownloadLimit != 5 || tok.DownloadCount != 0 || !tok.IsActive {
			t.Fatalf("bad token: %+v", tok)
		}
		if tok.BuyerID != "u-alice" || tok.Token == "" {
			t.Fatalf("bad token: %+v", tok)
		}
	}
}

func TestPaymentFlow_DuplicateDeliveryIsNoOp(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-alice", "plan-adirondack", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}

	evt := services.PaymentEvent{EventID: nextEvent(), Type: "succeeded", PaymentIntentID: "pi_2", OrderID: order.ID}
	if err := e.order.HandlePaymentEvent(evt); err != nil {
		t.Fatal(err)
	}
	// same event id redelivered
	if err := e.order.HandlePaymentEvent(evt); err != nil {
		t.Fatalf("duplicate delivery should be a no-op, got %v", err)
	}
	// semantically duplicate event under a fresh id
	evt.EventID = nextEvent()
	if err := e.order.HandlePaymentEvent(evt); err != nil {
		t.Fatalf("repeat success on COMPLETED should be a no-op, got %v", err)
	}

	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens must be minted exactly once, got %d", len(tokens))
	}
}

func TestPaymentFlow_Failed(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-bob", "plan-farm-table", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-bob")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "failed", PaymentIntentID: "pi_3", OrderID: order.ID,
		ErrCode: "card_declined", ErrMsg: "insufficient funds",
	}); err != nil {
		t.Fatal(err)
	}
	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderFailed {
		t.Fatalf("want FAILED, got %s", got.Status)
	}
	if got.ProviderError != "card_declined: insufficient funds" {
		t.Fatalf("provider diagnostics not recorded: %q", got.ProviderError)
	}

	tokens, err := e.tokens.ByOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 0 {
		t.Fatalf("failed order must not mint tokens, got %d", len(tokens))
	}

	// a late success for a failed order is an invalid transition
	err = e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "succeeded", PaymentIntentID: "pi_3", OrderID: order.ID,
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("want ErrInvalidStateTransition, got %v", err)
	}
}

func TestPaymentFlow_UnknownEventType(t *testing.T) {
	e := newEnv(t)
	if err := e.cart.Add("u-alice", "plan-bookshelf", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	err = e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "refunded", OrderID: order.ID,
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-alice", "plan-bookshelf", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}

	// another buyer cannot even see the order
	if err := e.order.Cancel(order.ID, "u-bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign order, got %v", err)
	}

	if err := e.order.Cancel(order.ID, "u-alice"); err != nil {
		t.Fatal(err)
	}
	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderCancelled {
		t.Fatalf("want CANCELLED, got %s", got.Status)
	}

	// terminal states reject further transitions
	if err := e.order.Cancel(order.ID, "u-alice"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("want ErrInvalidStateTransition, got %v", err)
	}
	err = e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "succeeded", OrderID: order.ID,
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("success after cancel: want ErrInvalidStateTransition, got %v", err)
	}
}

func TestPaymentFlow_ProcessingOnTerminalOrder(t *testing.T) {
	e := newEnv(t)

	if err := e.cart.Add("u-alice", "plan-bookshelf", 1); err != nil {
		t.Fatal(err)
	}
	order, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.order.Cancel(order.ID, "u-alice"); err != nil {
		t.Fatal(err)
	}

	// a late "processing" for a settled order must be rejected, not swallowed
	err = e.order.HandlePaymentEvent(services.PaymentEvent{
		EventID: nextEvent(), Type: "processing", PaymentIntentID: "pi_4", OrderID: order.ID,
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("processing on terminal order: want ErrInvalidStateTransition, got %v", err)
	}

	// while a repeat on an order that is already PROCESSING stays a no-op
	if err := e.cart.Add("u-alice", "plan-adirondack", 1); err != nil {
		t.Fatal(err)
	}
	order2, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := e.order.HandlePaymentEvent(services.PaymentEvent{
			EventID: nextEvent(), Type: "processing", PaymentIntentID: "pi_5", OrderID: order2.ID,
		}); err != nil {
			t.Fatalf("repeat processing should be a no-op, got %v", err)
		}
	}
}

func TestCancel_CompletedOrder(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-adirondack")
	if err := e.order.Cancel(order.ID, "u-alice"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("want ErrInvalidStateTransition, got %v", err)
	}
}
