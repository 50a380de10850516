package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wearhouse/storefront/internal/audit"
	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// AdminService covers the catalog and promocode management surface.
// Every operation requires the Admin role and records an audit event.
type AdminService struct {
	store repository.Store
	audit *audit.Publisher
}

// NewAdminService creates a new admin service
func NewAdminService(store repository.Store, pub *audit.Publisher) *AdminService {
	return &AdminService{
		store: store,
		audit: pub,
	}
}

func (s *AdminService) record(p *auth.Principal, action string) {
	if s.audit != nil {
		s.audit.Record(p.UserID, action)
	}
}

// AddCategory creates a product category.
func (s *AdminService) AddCategory(ctx context.Context, p *auth.Principal, name string) (int64, error) {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("%w: category name is required", models.ErrValidation)
	}
	id, err := s.store.CreateCategory(ctx, &models.Category{Name: name})
	if err != nil {
		return 0, err
	}
	s.record(p, fmt.Sprintf("category added: %s (id=%d)", name, id))
	return id, nil
}

// AddProduct creates a product in the catalog.
func (s *AdminService) AddProduct(ctx context.Context, p *auth.Principal, product *models.Product) (int64, error) {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return 0, err
	}
	if err := validateProduct(product); err != nil {
		return 0, err
	}
	id, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return 0, err
	}
	log.Printf("[ADMIN] Product added: id=%d name=%q by=%d", id, product.Name, p.UserID)
	s.record(p, fmt.Sprintf("product added: %s (id=%d)", product.Name, id))
	return id, nil
}

// UpdateProduct replaces a product's catalog fields. Order lines already
// written keep their frozen prices.
func (s *AdminService) UpdateProduct(ctx context.Context, p *auth.Principal, product *models.Product) error {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return err
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return err
	}
	s.record(p, fmt.Sprintf("product updated: %s (id=%d)", product.Name, product.ID))
	return nil
}

// DeleteProduct removes a product together with every cart line and
// favorite that references it.
func (s *AdminService) DeleteProduct(ctx context.Context, p *auth.Principal, productID int64) error {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	log.Printf("[ADMIN] Product deleted: id=%d by=%d", productID, p.UserID)
	s.record(p, fmt.Sprintf("product deleted: id=%d", productID))
	return nil
}

// AddPromocode creates a promocode. The discount must be a whole percent
// between 1 and 100, and the code must be either global or bound to
// exactly one category. A zero validity window defaults to one year from
// now.
func (s *AdminService) AddPromocode(ctx context.Context, p *auth.Principal, promo *models.Promocode) (int64, error) {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return 0, err
	}
	if promo.Code == "" {
		return 0, fmt.Errorf("%w: promocode is required", models.ErrValidation)
	}
	if promo.DiscountPercent < 1 || promo.DiscountPercent > 100 {
		return 0, fmt.Errorf("%w: discount must be between 1 and 100 percent", models.ErrValidation)
	}
	if promo.IsGlobal == (promo.CategoryID != nil) {
		return 0, fmt.Errorf("%w: promocode must be either global or bound to one category", models.ErrValidation)
	}
	if promo.ValidFrom.IsZero() && promo.ValidTo.IsZero() {
		promo.ValidFrom = time.Now()
		promo.ValidTo = promo.ValidFrom.AddDate(1, 0, 0)
	}
	if promo.ValidTo.Before(promo.ValidFrom) {
		return 0, fmt.Errorf("%w: promocode expires before it starts", models.ErrValidation)
	}

	id, err := s.store.CreatePromocode(ctx, promo)
	if err != nil {
		return 0, err
	}
	log.Printf("[ADMIN] Promocode added: code=%s discount=%d%% by=%d", promo.Code, promo.DiscountPercent, p.UserID)
	s.record(p, fmt.Sprintf("promocode added: %s (%d%%)", promo.Code, promo.DiscountPercent))
	return id, nil
}

// DeletePromocode removes a promocode. Orders that already used it keep
// their discounted prices.
func (s *AdminService) DeletePromocode(ctx context.Context, p *auth.Principal, promoID int64) error {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.DeletePromocode(ctx, promoID); err != nil {
		return err
	}
	s.record(p, fmt.Sprintf("promocode deleted: id=%d", promoID))
	return nil
}

// Promocodes lists every promocode, active or not.
func (s *AdminService) Promocodes(ctx context.Context, p *auth.Principal) ([]models.Promocode, error) {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListPromocodes(ctx)
}

// Logs returns the recorded actions of one admin.
func (s *AdminService) Logs(ctx context.Context, p *auth.Principal, userID int64) ([]models.AdminLogEntry, error) {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListAdminLogs(ctx, userID)
}

// DeleteLogs clears the recorded actions of one admin.
func (s *AdminService) DeleteLogs(ctx context.Context, p *auth.Principal, userID int64) error {
	if err := auth.Authorize(p, models.RoleAdmin); err != nil {
		return err
	}
	return s.store.DeleteAdminLogs(ctx, userID)
}

func validateProduct(product *models.Product) error {
	if product == nil || product.Name == "" {
		return fmt.Errorf("%w: product name is required", models.ErrValidation)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
	}
	if product.StockQuantity < 0 {
		return fmt.Errorf("%w: stock cannot be negative", models.ErrValidation)
	}
	return nil
}
