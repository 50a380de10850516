package services

import (
	"context"

	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// CatalogService serves read-only product, category, and promocode
// lookups. All reads return current rows; nothing is cached, since
// checkout pricing depends on point-in-time values.
type CatalogService struct {
	store repository.Store
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// Product returns a product by ID.
func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.ProductByID(ctx, id)
}

// Products returns all products.
func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

// Categories returns all categories.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// PromocodeByCode resolves a promocode by its code.
func (s *CatalogService) PromocodeByCode(ctx context.Context, code string) (*models.Promocode, error) {
	return s.store.PromocodeByCode(ctx, code)
}
