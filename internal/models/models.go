package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the closed set of roles a user can hold. Every user has exactly
// one role.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Category represents a product category
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Product represents a catalog item
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	CategoryID    int64           `json:"category_id" db:"category_id"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Promocode represents a discount code. Scope is exactly one of
// {global, single category}: IsGlobal true means CategoryID is nil,
// IsGlobal false means CategoryID is set.
type Promocode struct {
	ID              int64     `json:"id" db:"id"`
	Code            string    `json:"code" db:"code"`
	DiscountPercent int       `json:"discount_percent" db:"discount_percent"`
	IsGlobal        bool      `json:"is_global" db:"is_global"`
	CategoryID      *int64    `json:"category_id,omitempty" db:"category_id"`
	ValidFrom       time.Time `json:"valid_from" db:"valid_from"`
	ValidTo         time.Time `json:"valid_to" db:"valid_to"`
}

// ActiveAt reports whether the promocode's validity window covers t.
func (p *Promocode) ActiveAt(t time.Time) bool {
	return !t.Before(p.ValidFrom) && !t.After(p.ValidTo)
}

// AppliesTo reports whether the promocode discounts products of the given
// category.
func (p *Promocode) AppliesTo(categoryID int64) bool {
	if p.IsGlobal {
		return true
	}
	return p.CategoryID != nil && *p.CategoryID == categoryID
}

// CartLine is one (user, product, quantity) pending-purchase record.
// Quantity is always > 0; a quantity of zero means deletion, never stored.
type CartLine struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartEntry is a cart line joined with its current product row.
type CartEntry struct {
	CartLine
	Product Product `json:"product"`
}

// Favorite is a (user, product) bookmark, independent of the cart.
type Favorite struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Orders are created pending; later status transitions are out of scope
// for pricing.
const (
	OrderStatusPending = "pending"
)

// Order represents a placed order. UserID is 0 when the owning account has
// been deleted and the order retained as anonymized history.
type Order struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	PromoID   *int64    `json:"promo_id,omitempty" db:"promo_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OrderLine is an order line item. UnitPrice and DiscountedUnitPrice are
// frozen at order-creation time and never change afterwards, whatever
// happens to the product or the promocode.
type OrderLine struct {
	OrderID             int64           `json:"order_id" db:"order_id"`
	ProductID           int64           `json:"product_id" db:"product_id"`
	Quantity            int             `json:"quantity" db:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price" db:"unit_price"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price" db:"discounted_unit_price"`
}

// OrderDetails is an order with its lines.
type OrderDetails struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}

// AdminLogEntry is one append-only record of an admin mutation.
type AdminLogEntry struct {
	LogID     int64     `json:"log_id" db:"log_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
