package services

import (
	"context"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// FavoriteService manages per-user favorite products.
type FavoriteService struct {
	store repository.Store
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(store repository.Store) *FavoriteService {
	return &FavoriteService{store: store}
}

// Add marks a product as a favorite. Adding an existing favorite is a
// no-op.
func (s *FavoriteService) Add(ctx context.Context, p *auth.Principal, productID int64) error {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return err
	}
	return s.store.AddFavorite(ctx, p.UserID, productID)
}

// Remove unmarks a favorite product.
func (s *FavoriteService) Remove(ctx context.Context, p *auth.Principal, productID int64) error {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return err
	}
	return s.store.DeleteFavorite(ctx, p.UserID, productID)
}

// List returns the caller's favorite products.
func (s *FavoriteService) List(ctx context.Context, p *auth.Principal) ([]models.Product, error) {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return nil, err
	}
	return s.store.ListFavorites(ctx, p.UserID)
}
