package service

import (
	"context"
	"fmt"
	"strings"

	"tienda-api/internal/domain"
	"tienda-api/internal/realtime"
	"tienda-api/internal/repository"

	"github.com/google/uuid"
)

// CategoryAll is the category filter value meaning "no category filter".
const CategoryAll = "all"

// Filter is the storefront's product filter. A product is shown iff the
// search text is a case-insensitive substring of its name or description
// AND the category filter is "all" or matches its category. Both must hold.
type Filter struct {
	Search   string
	Category string // CategoryAll or a category UUID string
}

// CatalogService serves the public storefront: full product and category
// listings plus the live change feed.
type CatalogService interface {
	ListProducts(ctx context.Context, filter Filter) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	SubscribeProducts(ctx context.Context) (*realtime.Subscription, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	broker       *realtime.Broker
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	broker *realtime.Broker,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		broker:       broker,
	}
}

// ListProducts fetches the whole table newest-first and applies the filter
// predicate in memory, mirroring the storefront's fetch-all-then-filter
// contract. No pagination.
func (s *catalogService) ListProducts(ctx context.Context, filter Filter) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	filtered := []*domain.Product{}
	for _, product := range products {
		if MatchesFilter(product, filter) {
			filtered = append(filtered, product)
		}
	}

	return filtered, nil
}

// ListCategories returns all categories in display order
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// SubscribeProducts opens a live subscription to product changes. The
// caller owns the handle and must close it on teardown.
func (s *catalogService) SubscribeProducts(ctx context.Context) (*realtime.Subscription, error) {
	return s.broker.SubscribeProducts(ctx)
}

// MatchesFilter is the displayed-set predicate: case-insensitive substring
// match on name or description, AND category equality unless the filter is
// "all" or empty.
func MatchesFilter(product *domain.Product, filter Filter) bool {
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		name := strings.ToLower(product.Name)
		description := ""
		if product.Description != nil {
			description = strings.ToLower(*product.Description)
		}
		if !strings.Contains(name, search) && !strings.Contains(description, search) {
			return false
		}
	}

	if filter.Category != "" && filter.Category != CategoryAll {
		categoryID, err := uuid.Parse(filter.Category)
		if err != nil {
			return false
		}
		if product.CategoryID == nil || *product.CategoryID != categoryID {
			return false
		}
	}

	return true
}
