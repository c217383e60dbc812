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

type SellerService struct {
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
	FeePct float64
}

func NewSellerService(prods *repos.ProductRepo, orders *repos.OrderRepo, feePct float64) *SellerService {
	return &SellerService{Prods: prods, Orders: orders, FeePct: feePct}
}

// PlanInput is the explicit request struct for plan create/update; no
// loosely-typed payloads reach the core.
type PlanInput struct {
	SellerID    string `json:"-"`
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	FileRef     string `json:"file_ref"`
	ImagesJSON  string `json:"images_json"`
}

func (in *PlanInput) validate() (price float64, err error) {
	if _, ok := validate.ID(in.CategoryID); !ok {
		return 0, &domain.ValidationError{Field: "category_id", Msg: "malformed"}
	}
	if t := strings.TrimSpace(in.Title); t == "" || len(t) > 120 {
		return 0, &domain.ValidationError{Field: "title", Msg: "must be 1-120 characters"}
	}
	price, ok := validate.Price(in.Price)
	if !ok {
		return 0, &domain.ValidationError{Field: "price", Msg: "must be a non-negative amount with at most 2 decimals"}
	}
	if strings.TrimSpace(in.FileRef) == "" {
		return 0, &domain.ValidationError{Field: "file_ref", Msg: "required"}
	}
	return price, nil
}

func (s *SellerService) CreatePlan(in PlanInput) (domain.Product, error) {
	price, err := in.validate()
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  in.CategoryID,
		SellerID:    in.SellerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		FileRef:     strings.TrimSpace(in.FileRef),
		ImagesJSON:  in.ImagesJSON,
		Status:      domain.ProductDraft,
	}
	if p.ImagesJSON == "" {
		p.ImagesJSON = "[]"
	}
	if err := s.Prods.Create(&p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *SellerService) UpdatePlan(planID string, in PlanInput) (domain.Product, error) {
	price, err := in.validate()
	if err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.Get(planID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	if p.SellerID != in.SellerID {
		return domain.Product{}, domain.ErrNotFound // don't reveal other sellers' drafts
	}
	p.CategoryID = in.CategoryID
	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = price
	p.FileRef = strings.TrimSpace(in.FileRef)
	if in.ImagesJSON != "" {
		p.ImagesJSON = in.ImagesJSON
	}
	if err := s.Prods.Update(&p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// SetPlanStatus lets a seller move their own plan between DRAFT, PUBLISHED
// and ARCHIVED. SUSPENDED is admin-only.
func (s *SellerService) SetPlanStatus(planID, sellerID, status string) error {
	if status != domain.ProductDraft && status != domain.ProductPublished && status != domain.ProductArchived {
		return &domain.ValidationError{Field: "status", Msg: "must be DRAFT, PUBLISHED or ARCHIVED"}
	}
	p, err := s.Prods.Get(planID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if p.SellerID != sellerID {
		return domain.ErrNotFound
	}
	if p.Status == domain.ProductSuspended {
		return domain.ErrInvalidStateTransition
	}
	return s.Prods.SetStatus(planID, status)
}

func (s *SellerService) ListPlans(sellerID string) ([]domain.Product, error) {
	return s.Prods.ListBySeller(sellerID)
}

// Sale is one completed line item with the seller's payout under the
// platform's fee model.
type Sale struct {
	repos.SaleRow
	Payout float64 `json:"payout"`
}

func (s *SellerService) Sales(sellerID string) ([]Sale, error) {
	rows, err := s.Orders.SellerSales(sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(rows))
	for _, r := range rows {
		gross := r.UnitPrice * float64(r.Qty)
		t := ComputeTotals([]float64{gross}, s.FeePct)
		out = append(out, Sale{SaleRow: r, Payout: t.SellerAmount})
	}
	return out, nil
}
