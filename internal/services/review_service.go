package services

import (
	"database/sql"
	"errors"
	"strings"

	"furnibles/internal/domain"
	"furnibles/internal/repos"
	"furnibles/internal/validate"

	"github.com/google/uuid"
)

// Denylist for auto-moderation. Substring match, case-insensitive. Any hit,
// or any 1-star rating, queues the review for manual moderation instead of
// publishing it.
var moderationDenylist = []string{"spam", "fake", "scam", "fraud", "counterfeit"}

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders, Prods: prods}
}

// CreateReviewInput is the explicit request struct for review creation;
// everything is validated here before any row is written.
type CreateReviewInput struct {
	BuyerID   string `json:"-"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	Pros      string `json:"pros"`
	Cons      string `json:"cons"`
}

// Create checks purchase eligibility and uniqueness, persists the review as
// verified, and applies the auto-moderation rule synchronously.
func (s *ReviewService) Create(in CreateReviewInput) (domain.Review, error) {
	if !validate.Rating(in.Rating) {
		return domain.Review{}, &domain.ValidationError{Field: "rating", Msg: "must be an integer between 1 and 5"}
	}
	comment, ok := validate.Comment(in.Comment)
	if !ok {
		return domain.Review{}, &domain.ValidationError{Field: "comment", Msg: "must be 10-2000 characters"}
	}
	title, ok := validate.Title(in.Title)
	if !ok {
		return domain.Review{}, &domain.ValidationError{Field: "title", Msg: "too long"}
	}

	eligible, err := s.Orders.BuyerHasCompleted(in.OrderID, in.BuyerID, in.ProductID)
	if err != nil {
		return domain.Review{}, err
	}
	if !eligible {
		return domain.Review{}, domain.ErrPurchaseNotVerified
	}

	exists, err := s.Reviews.Exists(in.OrderID, in.ProductID, in.BuyerID)
	if err != nil {
		return domain.Review{}, err
	}
	if exists {
		return domain.Review{}, domain.ErrDuplicateReview
	}

	p, err := s.Prods.Get(in.ProductID)
	if err != nil {
		return domain.Review{}, err
	}

	rv := domain.Review{
		ID:         uuid.NewString(),
		OrderID:    in.OrderID,
		ProductID:  in.ProductID,
		BuyerID:    in.BuyerID,
		SellerID:   p.SellerID,
		Rating:     in.Rating,
		Title:      title,
		Comment:    comment,
		Pros:       strings.TrimSpace(in.Pros),
		Cons:       strings.TrimSpace(in.Cons),
		Status:     moderate(in.Rating, comment),
		IsVerified: true,
	}

	if err := s.Reviews.Create(&rv); err != nil {
		// the UNIQUE(order_id,product_id,buyer_id) constraint is the real
		// duplicate guard under concurrency
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.Review{}, domain.ErrDuplicateReview
		}
		return domain.Review{}, err
	}
	return rv, nil
}

// moderate is the automated publishing rule: denylist hit or a 1-star
// rating goes to FLAGGED for manual review, everything else publishes
// immediately.
func moderate(rating int, comment string) string {
	if rating == 1 {
		return domain.ReviewFlagged
	}
	lower := strings.ToLower(comment)
	for _, term := range moderationDenylist {
		if strings.Contains(lower, term) {
			return domain.ReviewFlagged
		}
	}
	return domain.ReviewPublished
}

// Vote upserts the voter's latest vote (overwrite, not accumulate) and
// recounts both counters atomically with the vote write.
func (s *ReviewService) Vote(reviewID, userID, vote string) (helpful, notHelpful int, err error) {
	if vote != domain.VoteHelpful && vote != domain.VoteNotHelpful {
		return 0, 0, &domain.ValidationError{Field: "vote", Msg: "must be HELPFUL or NOT_HELPFUL"}
	}
	if _, err := s.Reviews.Get(reviewID); errors.Is(err, sql.ErrNoRows) {
		return 0, 0, domain.ErrNotFound
	} else if err != nil {
		return 0, 0, err
	}
	return s.Reviews.UpsertVote(reviewID, userID, vote)
}

// Respond creates the single permitted seller response on a PUBLISHED
// review. Only the review's seller of record may respond.
func (s *ReviewService) Respond(reviewID, sellerID, comment string) (domain.ReviewResponse, error) {
	comment, ok := validate.Comment(comment)
	if !ok {
		return domain.ReviewResponse{}, &domain.ValidationError{Field: "comment", Msg: "must be 10-2000 characters"}
	}
	rv, err := s.Reviews.Get(reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ReviewResponse{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ReviewResponse{}, err
	}
	if rv.SellerID != sellerID {
		return domain.ReviewResponse{}, domain.ErrNotSellerOfRecord
	}
	if rv.Status != domain.ReviewPublished {
		return domain.ReviewResponse{}, domain.ErrReviewNotPublished
	}
	if has, err := s.Reviews.HasResponse(reviewID); err != nil {
		return domain.ReviewResponse{}, err
	} else if has {
		return domain.ReviewResponse{}, domain.ErrDuplicateResponse
	}

	resp := domain.ReviewResponse{ReviewID: reviewID, SellerID: sellerID, Comment: comment}
	if err := s.Reviews.CreateResponse(&resp); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ReviewResponse{}, domain.ErrDuplicateResponse
		}
		return domain.ReviewResponse{}, err
	}
	return resp, nil
}

// Moderate resolves a FLAGGED review to PUBLISHED or REMOVED. Reviews are
// never physically deleted; REMOVED is terminal and keeps the audit trail.
func (s *ReviewService) Moderate(reviewID, decision string) error {
	if decision != domain.ReviewPublished && decision != domain.ReviewRemoved {
		return &domain.ValidationError{Field: "decision", Msg: "must be PUBLISHED or REMOVED"}
	}
	rv, err := s.Reviews.Get(reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if rv.Status != domain.ReviewFlagged && rv.Status != domain.ReviewPendingModeration {
		return domain.ErrInvalidStateTransition
	}
	if _, err := s.Reviews.SetStatus(reviewID, decision); err != nil {
		return err
	}
	return nil
}

func (s *ReviewService) ListByProduct(productID string, page, pageSize int) ([]domain.Review, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.Reviews.ListByProduct(productID, pageSize, (page-1)*pageSize)
}

func (s *ReviewService) Summary(productID string) (domain.RatingSummary, error) {
	return s.Reviews.Summary(productID)
}
