package services_test

import (
	"errors"
	"testing"

	"furnibles/internal/domain"
	"furnibles/internal/services"
)

func TestReview_RequiresCompletedPurchase(t *testing.T) {
	e := newEnv(t)

	// order placed but never paid
	if err := e.cart.Add("u-alice", "plan-farm-table", 1); err != nil {
		t.Fatal(err)
	}
	pending, err := e.order.Checkout("u-alice")
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: pending.ID, ProductID: "plan-farm-table",
		Rating: 5, Comment: "Great plan, very clear drawings.",
	})
	if !errors.Is(err, domain.ErrPurchaseNotVerified) {
		t.Fatalf("pending order: want ErrPurchaseNotVerified, got %v", err)
	}

	// completed order, but the plan is not in it
	done := e.completedOrder(t, "u-alice", "plan-bookshelf")
	_, err = e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: done.ID, ProductID: "plan-adirondack",
		Rating: 5, Comment: "Great plan, very clear drawings.",
	})
	if !errors.Is(err, domain.ErrPurchaseNotVerified) {
		t.Fatalf("wrong plan: want ErrPurchaseNotVerified, got %v", err)
	}

	// somebody else's order
	_, err = e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-bob", OrderID: done.ID, ProductID: "plan-bookshelf",
		Rating: 5, Comment: "Great plan, very clear drawings.",
	})
	if !errors.Is(err, domain.ErrPurchaseNotVerified) {
		t.Fatalf("wrong buyer: want ErrPurchaseNotVerified, got %v", err)
	}
}

func TestReview_PublishAndDuplicate(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-farm-table")

	in := services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-farm-table",
		Rating: 5, Title: "Solid build", Comment: "Clear measurements and a sensible cut list.",
	}
	rv, err := e.reviews.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if rv.Status != domain.ReviewPublished {
		t.Fatalf("clean 5-star review should publish, got %s", rv.Status)
	}
	if !rv.IsVerified {
		t.Fatal("review must carry the verified-purchase mark")
	}
	if rv.SellerID != "u-woodshop" {
		t.Fatalf("seller of record not resolved: %q", rv.SellerID)
	}

	if _, err := e.reviews.Create(in); !errors.Is(err, domain.ErrDuplicateReview) {
		t.Fatalf("want ErrDuplicateReview, got %v", err)
	}
}

func TestReview_AutoModeration(t *testing.T) {
	e := newEnv(t)

	// 1-star ratings always go to moderation
	o1 := e.completedOrder(t, "u-alice", "plan-adirondack")
	rv, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: o1.ID, ProductID: "plan-adirondack",
		Rating: 1, Comment: "The templates did not line up at all.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rv.Status != domain.ReviewFlagged {
		t.Fatalf("1-star: want FLAGGED, got %s", rv.Status)
	}

	// denylisted term, case-insensitive
	o2 := e.completedOrder(t, "u-bob", "plan-adirondack")
	rv, err = e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-bob", OrderID: o2.ID, ProductID: "plan-adirondack",
		Rating: 4, Comment: "Decent but the hero photo looks FAKE to me.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rv.Status != domain.ReviewFlagged {
		t.Fatalf("denylist hit: want FLAGGED, got %s", rv.Status)
	}

	// flagged reviews don't show in the public list or the summary
	published, err := e.reviews.ListByProduct("plan-adirondack", 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 0 {
		t.Fatalf("flagged reviews leaked into the public list: %d", len(published))
	}
	sum, err := e.reviews.Summary("plan-adirondack")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 0 {
		t.Fatalf("summary must cover published only, got count %d", sum.Count)
	}
}

func TestReview_Validation(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-farm-table")

	var ve *domain.ValidationError
	_, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-farm-table",
		Rating: 0, Comment: "Clear measurements and a sensible cut list.",
	})
	if !errors.As(err, &ve) || ve.Field != "rating" {
		t.Fatalf("want rating ValidationError, got %v", err)
	}

	_, err = e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-farm-table",
		Rating: 4, Comment: "short",
	})
	if !errors.As(err, &ve) || ve.Field != "comment" {
		t.Fatalf("want comment ValidationError, got %v", err)
	}
}

func TestReview_Votes(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-bookshelf")
	rv, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-bookshelf",
		Rating: 5, Comment: "Plywood friendly and quick to build.",
	})
	if err != nil {
		t.Fatal(err)
	}

	helpful, notHelpful, err := e.reviews.Vote(rv.ID, "u-bob", domain.VoteHelpful)
	if err != nil {
		t.Fatal(err)
	}
	if helpful != 1 || notHelpful != 0 {
		t.Fatalf("want 1/0, got %d/%d", helpful, notHelpful)
	}

	// same voter changes their mind: overwrite, not accumulate
	helpful, notHelpful, err = e.reviews.Vote(rv.ID, "u-bob", domain.VoteNotHelpful)
	if err != nil {
		t.Fatal(err)
	}
	if helpful != 0 || notHelpful != 1 {
		t.Fatalf("want 0/1 after switch, got %d/%d", helpful, notHelpful)
	}

	helpful, notHelpful, err = e.reviews.Vote(rv.ID, "u-admin", domain.VoteHelpful)
	if err != nil {
		t.Fatal(err)
	}
	if helpful != 1 || notHelpful != 1 {
		t.Fatalf("want 1/1, got %d/%d", helpful, notHelpful)
	}

	var ve *domain.ValidationError
	if _, _, err := e.reviews.Vote(rv.ID, "u-bob", "MEH"); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if _, _, err := e.reviews.Vote("r-missing", "u-bob", domain.VoteHelpful); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestReview_SellerResponse(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-farm-table")
	rv, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-farm-table",
		Rating: 4, Comment: "Good plan, the finish section could be longer.",
	})
	if err != nil {
		t.Fatal(err)
	}

	comment := "Thanks! A longer finishing guide ships with v4."
	if _, err := e.reviews.Respond(rv.ID, "u-bob", comment); !errors.Is(err, domain.ErrNotSellerOfRecord) {
		t.Fatalf("want ErrNotSellerOfRecord, got %v", err)
	}

	resp, err := e.reviews.Respond(rv.ID, "u-woodshop", comment)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ReviewID != rv.ID || resp.SellerID != "u-woodshop" {
		t.Fatalf("bad response: %+v", resp)
	}

	// one response per review
	if _, err := e.reviews.Respond(rv.ID, "u-woodshop", comment); !errors.Is(err, domain.ErrDuplicateResponse) {
		t.Fatalf("want ErrDuplicateResponse, got %v", err)
	}
}

func TestReview_RespondRequiresPublished(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-bob", "plan-bookshelf")
	rv, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-bob", OrderID: order.ID, ProductID: "plan-bookshelf",
		Rating: 1, Comment: "Shelf spacing in the drawing is wrong.",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.reviews.Respond(rv.ID, "u-woodshop", "We will double-check the spacing table.")
	if !errors.Is(err, domain.ErrReviewNotPublished) {
		t.Fatalf("want ErrReviewNotPublished, got %v", err)
	}
}

func TestReview_Moderate(t *testing.T) {
	e := newEnv(t)
	order := e.completedOrder(t, "u-alice", "plan-adirondack")
	rv, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-alice", OrderID: order.ID, ProductID: "plan-adirondack",
		Rating: 1, Comment: "Armrest templates are mirrored incorrectly.",
	})
	if err != nil {
		t.Fatal(err)
	}

	var ve *domain.ValidationError
	if err := e.reviews.Moderate(rv.ID, "DELETE"); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	if err := e.reviews.Moderate(rv.ID, domain.ReviewPublished); err != nil {
		t.Fatal(err)
	}
	published, err := e.reviews.ListByProduct("plan-adirondack", 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 1 {
		t.Fatalf("approved review should be public, got %d", len(published))
	}

	// already resolved
	if err := e.reviews.Moderate(rv.ID, domain.ReviewRemoved); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("want ErrInvalidStateTransition, got %v", err)
	}

	// a second flagged review gets removed, which is terminal
	o2 := e.completedOrder(t, "u-bob", "plan-adirondack")
	rv2, err := e.reviews.Create(services.CreateReviewInput{
		BuyerID: "u-bob", OrderID: o2.ID, ProductID: "plan-adirondack",
		Rating: 2, Comment: "Honestly this whole listing feels like a scam.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rv2.Status != domain.ReviewFlagged {
		t.Fatalf("want FLAGGED, got %s", rv2.Status)
	}
	if err := e.reviews.Moderate(rv2.ID, domain.ReviewRemoved); err != nil {
		t.Fatal(err)
	}
	if err := e.reviews.Moderate(rv2.ID, domain.ReviewPublished); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("REMOVED is terminal, got %v", err)
	}

	sum, err := e.reviews.Summary("plan-adirondack")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 1 || sum.Average != 1 {
		t.Fatalf("summary should count the approved review only: %+v", sum)
	}
}
