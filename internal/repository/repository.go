// Package repository defines the storage port the domain services are
// written against. Two implementations exist: mysql (relational) and
// memory (in-process, standing in for the document-store variant). Both
// must keep the cascade and atomicity guarantees documented per method.
package repository

import (
	"context"

	"github.com/wearhouse/storefront/internal/models"
)

// Store is the persistence boundary of the storefront core.
//
// Methods that look up a single entity return models.ErrNotFound (wrapped)
// when it does not exist.
type Store interface {
	// Users

	CreateUser(ctx context.Context, user *models.User) (int64, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// DeleteUser removes the account together with its cart lines and
	// favorites, and clears the user reference on retained orders, as one
	// atomic unit.
	DeleteUser(ctx context.Context, userID int64) error

	// Catalog

	CreateCategory(ctx context.Context, category *models.Category) (int64, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateProduct(ctx context.Context, product *models.Product) (int64, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	// DeleteProduct removes the product and every cart line and favorite
	// referencing it in the same atomic unit. Order lines referencing the
	// product are left untouched.
	DeleteProduct(ctx context.Context, productID int64) error
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)

	// Promocodes

	CreatePromocode(ctx context.Context, promo *models.Promocode) (int64, error)
	// DeletePromocode only blocks future use of the code; existing orders
	// keep their frozen prices.
	DeletePromocode(ctx context.Context, promoID int64) error
	PromocodeByCode(ctx context.Context, code string) (*models.Promocode, error)
	ListPromocodes(ctx context.Context) ([]models.Promocode, error)

	// Cart

	CartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error)
	UpsertCartLine(ctx context.Context, line *models.CartLine) error
	DeleteCartLine(ctx context.Context, userID, productID int64) error
	// LoadCart returns the user's cart lines joined with current product
	// rows, so callers always see point-in-time price and stock.
	LoadCart(ctx context.Context, userID int64) ([]models.CartEntry, error)
	CountActiveCarts(ctx context.Context) (int, error)

	// Favorites

	AddFavorite(ctx context.Context, userID, productID int64) error
	DeleteFavorite(ctx context.Context, userID, productID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]models.Product, error)

	// Orders

	// PlaceOrder persists the order with its frozen-price lines, decrements
	// stock with an at-least-quantity guard, and clears the user's cart,
	// all-or-nothing. A failed stock guard returns
	// models.ErrInsufficientStock; a commit whose outcome is unknown
	// returns models.ErrAborted.
	PlaceOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) (int64, error)
	OrderByID(ctx context.Context, userID, orderID int64) (*models.OrderDetails, error)
	ListOrders(ctx context.Context, userID int64) ([]models.OrderDetails, error)

	// Admin action log

	AppendAdminLog(ctx context.Context, entry *models.AdminLogEntry) error
	ListAdminLogs(ctx context.Context, userID int64) ([]models.AdminLogEntry, error)
	DeleteAdminLogs(ctx context.Context, userID int64) error
}
