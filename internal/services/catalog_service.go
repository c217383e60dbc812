package services

import (
	"furnibles/internal/cache"
	"furnibles/internal/domain"
	"furnibles/internal/repos"
)

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Reviews *repos.ReviewRepo
	Cache   *cache.Catalog // nil when Redis is not configured
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, reviews *repos.ReviewRepo, c *cache.Catalog) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Reviews: reviews, Cache: c}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) ListByCategory(catID string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return s.Prods.ListByCategory(catID, pageSize, (page-1)*pageSize)
}

// PlanDetail is a plan plus its published-review rating summary.
type PlanDetail struct {
	Product domain.Product       `json:"product"`
	Rating  domain.RatingSummary `json:"rating"`
}

// Get serves plan detail read-through the Redis cache when one is wired.
func (s *CatalogService) Get(id string) (PlanDetail, error) {
	if s.Cache != nil {
		if p, ok := s.Cache.GetProduct(id); ok {
			sum, err := s.Reviews.Summary(id)
			if err != nil {
				return PlanDetail{}, err
			}
			return PlanDetail{Product: p, Rating: sum}, nil
		}
	}
	p, err := s.Prods.Get(id)
	if err != nil {
		return PlanDetail{}, err
	}
	if s.Cache != nil {
		s.Cache.SetProduct(p)
	}
	sum, err := s.Reviews.Summary(id)
	if err != nil {
		return PlanDetail{}, err
	}
	return PlanDetail{Product: p, Rating: sum}, nil
}

func (s *CatalogService) Search(q, category string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return s.Prods.Search(q, category, pageSize, (page-1)*pageSize)
}

// Invalidate drops a plan from the cache after a seller or admin write.
func (s *CatalogService) Invalidate(id string) {
	if s.Cache != nil {
		s.Cache.DelProduct(id)
	}
}
