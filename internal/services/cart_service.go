package services

import (
	"database/sql"
	"errors"

	"furnibles/internal/domain"
	"furnibles/internal/repos"
)

type CartService struct {
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	FeePct float64
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, feePct float64) *CartService {
	return &CartService{Carts: carts, Prods: prods, FeePct: feePct}
}

// Add snapshots the plan's current price into the cart row. Only PUBLISHED
// plans can be added.
func (s *CartService) Add(buyerID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !p.Purchasable() {
		return &domain.ProductUnavailableError{ProductID: p.ID, Status: p.Status}
	}
	return s.Carts.UpsertItem(buyerID, productID, qty, p.Price)
}

type CartView struct {
	Items  []domain.CartItem `json:"items"`
	Totals Totals            `json:"totals"`
}

func (s *CartService) View(buyerID string) (CartView, error) {
	items, err := s.Carts.Items(buyerID)
	if err != nil {
		return CartView{}, err
	}
	prices := make([]float64, 0, len(items))
	for _, it := range items {
		for i := 0; i < it.Qty; i++ {
			prices = append(prices, it.UnitPriceSnapshot)
		}
	}
	return CartView{Items: items, Totals: ComputeTotals(prices, s.FeePct)}, nil
}

func (s *CartService) Remove(buyerID, productID string) error {
	return s.Carts.RemoveItem(buyerID, productID)
}

func (s *CartService) Clear(buyerID string) error {
	return s.Carts.Clear(buyerID)
}
