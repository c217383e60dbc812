package domain

import (
	"errors"
	"fmt"
)

// Expected, user-facing outcomes. Handlers map these to HTTP statuses and
// machine-readable codes; anything else is treated as an internal failure.
var (
	ErrNotFound               = errors.New("not found")
	ErrCartEmpty              = errors.New("cart is empty")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrPurchaseNotVerified = errors.New("purchase not verified")
	ErrDuplicateReview     = errors.New("duplicate review")
	ErrDuplicateResponse   = errors.New("review already has a response")
	ErrReviewNotPublished  = errors.New("review is not published")
	ErrNotSellerOfRecord   = errors.New("not the seller of record")

	ErrTokenNotFound         = errors.New("download token not found")
	ErrTokenRevoked          = errors.New("download token revoked")
	ErrTokenExpired          = errors.New("download token expired")
	ErrDownloadLimitExceeded = errors.New("download limit exceeded")
)

// ProductUnavailableError identifies the offending plan so a failed checkout
// can name it instead of reporting a generic error.
type ProductUnavailableError struct {
	ProductID string
	Status    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not purchasable (status %s)", e.ProductID, e.Status)
}

// ValidationError carries the field that failed boundary validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
