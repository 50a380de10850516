// Package memory implements repository.Store on in-process maps. It backs
// the test suite and mirrors the document-store deployment, where the same
// domain rules run against collections instead of tables. One mutex guards
// all state, so every method is atomic by construction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu sync.RWMutex

	users      map[int64]models.User
	categories map[int64]models.Category
	products   map[int64]models.Product
	promocodes map[int64]models.Promocode
	carts      map[int64]map[int64]models.CartLine
	favorites  map[int64]map[int64]time.Time
	orders     map[int64]models.Order
	orderLines map[int64][]models.OrderLine
	logs       []models.AdminLogEntry

	nextUserID    int64
	nextCategory  int64
	nextProductID int64
	nextPromoID   int64
	nextOrderID   int64
	nextLogID     int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		categories: make(map[int64]models.Category),
		products:   make(map[int64]models.Product),
		promocodes: make(map[int64]models.Promocode),
		carts:      make(map[int64]map[int64]models.CartLine),
		favorites:  make(map[int64]map[int64]time.Time),
		orders:     make(map[int64]models.Order),
		orderLines: make(map[int64][]models.OrderLine),
	}
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("%w: username %q already taken", models.ErrValidation, user.Username)
		}
	}

	s.nextUserID++
	u := *user
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return &u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
}

func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	delete(s.users, userID)
	delete(s.carts, userID)
	delete(s.favorites, userID)

	// Retain order history anonymized: the rows stay, the user reference
	// is cleared.
	for id, o := range s.orders {
		if o.UserID == userID {
			o.UserID = 0
			s.orders[id] = o
		}
	}
	return nil
}

// Catalog

func (s *Store) CreateCategory(_ context.Context, category *models.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCategory++
	c := *category
	c.ID = s.nextCategory
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product *models.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProductID++
	p := *product
	p.ID = s.nextProductID
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p.ID, nil
}

func (s *Store) UpdateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, product.ID)
	}
	p := *product
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.products[p.ID] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, productID)
	}
	delete(s.products, productID)

	// Cascade: cart lines and favorites lose the reference, order lines
	// keep their frozen history.
	for _, cart := range s.carts {
		delete(cart, productID)
	}
	for _, favs := range s.favorites {
		delete(favs, productID)
	}
	return nil
}

func (s *Store) ProductByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", models.ErrNotFound, id)
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Promocodes

func (s *Store) CreatePromocode(_ context.Context, promo *models.Promocode) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.promocodes {
		if p.Code == promo.Code {
			return 0, fmt.Errorf("%w: promocode %q already exists", models.ErrValidation, promo.Code)
		}
	}

	s.nextPromoID++
	p := *promo
	p.ID = s.nextPromoID
	s.promocodes[p.ID] = p
	return p.ID, nil
}

func (s *Store) DeletePromocode(_ context.Context, promoID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.promocodes[promoID]; !ok {
		return fmt.Errorf("%w: promocode %d", models.ErrNotFound, promoID)
	}
	delete(s.promocodes, promoID)
	return nil
}

func (s *Store) PromocodeByCode(_ context.Context, code string) (*models.Promocode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.promocodes {
		if p.Code == code {
			promo := p
			return &promo, nil
		}
	}
	return nil, fmt.Errorf("%w: promocode %q", models.ErrNotFound, code)
}

func (s *Store) ListPromocodes(_ context.Context) ([]models.Promocode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Promocode, 0, len(s.promocodes))
	for _, p := range s.promocodes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Cart

func (s *Store) CartLine(_ context.Context, userID, productID int64) (*models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	line, ok := s.carts[userID][productID]
	if !ok {
		return nil, fmt.Errorf("%w: cart line (%d, %d)", models.ErrNotFound, userID, productID)
	}
	return &line, nil
}

func (s *Store) UpsertCartLine(_ context.Context, line *models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[line.ProductID]; !ok {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, line.ProductID)
	}
	cart, ok := s.carts[line.UserID]
	if !ok {
		cart = make(map[int64]models.CartLine)
		s.carts[line.UserID] = cart
	}
	l := *line
	l.UpdatedAt = time.Now()
	cart[l.ProductID] = l
	return nil
}

func (s *Store) DeleteCartLine(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts[userID], productID)
	return nil
}

func (s *Store) LoadCart(_ context.Context, userID int64) ([]models.CartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.CartEntry
	for productID, line := range s.carts[userID] {
		product, ok := s.products[productID]
		if !ok {
			continue
		}
		out = append(out, models.CartEntry{CartLine: line, Product: product})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *Store) CountActiveCarts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, cart := range s.carts {
		if len(cart) > 0 {
			count++
		}
	}
	return count, nil
}

// Favorites

func (s *Store) AddFavorite(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, productID)
	}
	favs, ok := s.favorites[userID]
	if !ok {
		favs = make(map[int64]time.Time)
		s.favorites[userID] = favs
	}
	favs[productID] = time.Now()
	return nil
}

func (s *Store) DeleteFavorite(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.favorites[userID], productID)
	return nil
}

func (s *Store) ListFavorites(_ context.Context, userID int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Product
	for productID := range s.favorites[userID] {
		if p, ok := s.products[productID]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Orders

func (s *Store) PlaceOrder(_ context.Context, order *models.Order, lines []models.OrderLine) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stock guard re-checked under the lock, so concurrent checkouts
	// cannot oversell.
	for _, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			return 0, fmt.Errorf("%w: product %d", models.ErrNotFound, line.ProductID)
		}
		if p.StockQuantity < line.Quantity {
			return 0, fmt.Errorf("%w: product %d has %d in stock, %d requested",
				models.ErrInsufficientStock, line.ProductID, p.StockQuantity, line.Quantity)
		}
	}

	s.nextOrderID++
	o := *order
	o.ID = s.nextOrderID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	s.orders[o.ID] = o

	stored := make([]models.OrderLine, len(lines))
	for i, line := range lines {
		line.OrderID = o.ID
		stored[i] = line

		p := s.products[line.ProductID]
		p.StockQuantity -= line.Quantity
		s.products[line.ProductID] = p
	}
	s.orderLines[o.ID] = stored

	delete(s.carts, order.UserID)
	return o.ID, nil
}

func (s *Store) OrderByID(_ context.Context, userID, orderID int64) (*models.OrderDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, fmt.Errorf("%w: order %d", models.ErrNotFound, orderID)
	}
	lines := make([]models.OrderLine, len(s.orderLines[orderID]))
	copy(lines, s.orderLines[orderID])
	return &models.OrderDetails{Order: o, Lines: lines}, nil
}

func (s *Store) ListOrders(_ context.Context, userID int64) ([]models.OrderDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.OrderDetails
	for id, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		lines := make([]models.OrderLine, len(s.orderLines[id]))
		copy(lines, s.orderLines[id])
		out = append(out, models.OrderDetails{Order: o, Lines: lines})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.ID < out[j].Order.ID })
	return out, nil
}

// Admin action log

func (s *Store) AppendAdminLog(_ context.Context, entry *models.AdminLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	e := *entry
	e.LogID = s.nextLogID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.logs = append(s.logs, e)
	return nil
}

func (s *Store) ListAdminLogs(_ context.Context, userID int64) ([]models.AdminLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AdminLogEntry
	for _, e := range s.logs {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) DeleteAdminLogs(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.logs[:0]
	for _, e := range s.logs {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	s.logs = kept
	return nil
}
