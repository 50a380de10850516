package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/metrics"
	"github.com/wearhouse/storefront/internal/middleware"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/services"
	"github.com/wearhouse/storefront/pkg/config"
)

// App holds application dependencies
type App struct {
	config          *config.Config
	metrics         *metrics.AppMetrics
	tokens          *auth.TokenManager
	catalogService  *services.CatalogService
	cartService     *services.CartService
	orderService    *services.OrderService
	accountService  *services.AccountService
	favoriteService *services.FavoriteService
	adminService    *services.AdminService
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	m *metrics.AppMetrics,
	tokens *auth.TokenManager,
	cat *services.CatalogService,
	cart *services.CartService,
	orders *services.OrderService,
	accounts *services.AccountService,
	favorites *services.FavoriteService,
	admin *services.AdminService,
) *App {
	return &App{
		config:          cfg,
		metrics:         m,
		tokens:          tokens,
		catalogService:  cat,
		cartService:     cart,
		orderService:    orders,
		accountService:  accounts,
		favoriteService: favorites,
		adminService:    admin,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	// Middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	if a.metrics != nil {
		r.Use(middleware.MetricsMiddleware(a.metrics))
	}
	r.Use(middleware.AuthMiddleware(a.tokens))

	// Auth
	r.HandleFunc("/auth/register", a.RegisterHandler).Methods("POST")
	r.HandleFunc("/auth/login", a.LoginHandler).Methods("POST")
	r.HandleFunc("/auth/delete-own", a.DeleteOwnAccountHandler).Methods("POST")

	// Catalog
	r.HandleFunc("/products", a.ListProductsHandler).Methods("GET")
	r.HandleFunc("/products/{id}", a.GetProductHandler).Methods("GET")
	r.HandleFunc("/categories", a.ListCategoriesHandler).Methods("GET")

	// Cart
	r.HandleFunc("/cart", a.GetCartHandler).Methods("GET")
	r.HandleFunc("/cart/add", a.AddToCartHandler).Methods("POST")
	r.HandleFunc("/cart/set", a.SetCartQuantityHandler).Methods("POST")
	r.HandleFunc("/cart/{productId}", a.RemoveFromCartHandler).Methods("DELETE")

	// Favorites
	r.HandleFunc("/favorites", a.AddFavoriteHandler).Methods("POST")
	r.HandleFunc("/favorites", a.ListFavoritesHandler).Methods("GET")
	r.HandleFunc("/favorites/by-product/{productId}", a.RemoveFavoriteHandler).Methods("DELETE")

	// Orders
	r.HandleFunc("/orders/create", a.CreateOrderHandler).Methods("POST")
	r.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	r.HandleFunc("/orders/{orderId}", a.GetOrderHandler).Methods("GET")

	// Admin
	r.HandleFunc("/admin/categories/add", a.AddCategoryHandler).Methods("POST")
	r.HandleFunc("/admin/products/add", a.AddProductHandler).Methods("POST")
	r.HandleFunc("/admin/products/update", a.UpdateProductHandler).Methods("POST")
	r.HandleFunc("/admin/products/delete", a.DeleteProductHandler).Methods("POST")
	r.HandleFunc("/admin/promocodes", a.ListPromocodesHandler).Methods("GET")
	r.HandleFunc("/admin/promocodes/add", a.AddPromocodeHandler).Methods("POST")
	r.HandleFunc("/admin/promocodes/delete", a.DeletePromocodeHandler).Methods("POST")
	r.HandleFunc("/admin/users/delete", a.AdminDeleteUserHandler).Methods("POST")
	r.HandleFunc("/admin/logs", a.ListAdminLogsHandler).Methods("GET")
	r.HandleFunc("/admin/logs", a.DeleteAdminLogsHandler).Methods("DELETE")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeError maps service errors onto HTTP statuses with a
// human-readable reason.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrAborted):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "checkout outcome unknown; verify your order history before retrying",
		})
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidPromocode),
		errors.Is(err, models.ErrPromocodeExpired),
		errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// RegisterHandler handles POST /auth/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username"`
		PasswordHash string `json:"passwordHash"`
		Email        string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := a.accountService.Register(r.Context(), req.Username, req.PasswordHash, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"token": token, "user": user})
}

// LoginHandler handles POST /auth/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username"`
		PasswordHash string `json:"passwordHash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := a.accountService.Login(r.Context(), req.Username, req.PasswordHash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// DeleteOwnAccountHandler handles POST /auth/delete-own
func (a *App) DeleteOwnAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PasswordHash string `json:"passwordHash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p := middleware.Principal(r)
	if p == nil {
		writeError(w, models.ErrUnauthorized)
		return
	}
	if err := a.accountService.DeleteAccount(r.Context(), p, p.UserID, req.PasswordHash); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// ListProductsHandler handles GET /products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.catalogService.Products(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProductHandler handles GET /products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := a.catalogService.Product(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ListCategoriesHandler handles GET /categories
func (a *App) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalogService.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetCartHandler handles GET /cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := a.cartService.List(r.Context(), middleware.Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AddToCartHandler handles POST /cart/add
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.cartService.AddDelta(r.Context(), middleware.Principal(r), req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// SetCartQuantityHandler handles POST /cart/set
func (a *App) SetCartQuantityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.cartService.SetQuantity(r.Context(), middleware.Principal(r), req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// RemoveFromCartHandler handles DELETE /cart/{productId}
func (a *App) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "productId")
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := a.cartService.Remove(r.Context(), middleware.Principal(r), productID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// AddFavoriteHandler handles POST /favorites
func (a *App) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.favoriteService.Add(r.Context(), middleware.Principal(r), req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// ListFavoritesHandler handles GET /favorites
func (a *App) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.favoriteService.List(r.Context(), middleware.Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// RemoveFavoriteHandler handles DELETE /favorites/by-product/{productId}
func (a *App) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "productId")
	if !ok {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := a.favoriteService.Remove(r.Context(), middleware.Principal(r), productID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// CreateOrderHandler handles POST /orders/create
func (a *App) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromoCode string `json:"promoCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orderID, err := a.orderService.Checkout(r.Context(), middleware.Principal(r), req.PromoCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "orderId": orderID})
}

// ListOrdersHandler handles GET /orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orderService.Orders(r.Context(), middleware.Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderHandler handles GET /orders/{orderId}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "orderId")
	if !ok {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := a.orderService.Order(r.Context(), middleware.Principal(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// AddCategoryHandler handles POST /admin/categories/add
func (a *App) AddCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := a.adminService.AddCategory(r.Context(), middleware.Principal(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "categoryId": id})
}

// AddProductHandler handles POST /admin/products/add
func (a *App) AddProductHandler(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := a.adminService.AddProduct(r.Context(), middleware.Principal(r), &product)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "productId": id})
}

// UpdateProductHandler handles POST /admin/products/update
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.adminService.UpdateProduct(r.Context(), middleware.Principal(r), &product); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteProductHandler handles POST /admin/products/delete
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.adminService.DeleteProduct(r.Context(), middleware.Principal(r), req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// ListPromocodesHandler handles GET /admin/promocodes
func (a *App) ListPromocodesHandler(w http.ResponseWriter, r *http.Request) {
	promos, err := a.adminService.Promocodes(r.Context(), middleware.Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}

// AddPromocodeHandler handles POST /admin/promocodes/add
func (a *App) AddPromocodeHandler(w http.ResponseWriter, r *http.Request) {
	var promo models.Promocode
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := a.adminService.AddPromocode(r.Context(), middleware.Principal(r), &promo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "promoId": id})
}

// DeletePromocodeHandler handles POST /admin/promocodes/delete
func (a *App) DeletePromocodeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromoID int64 `json:"promoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.adminService.DeletePromocode(r.Context(), middleware.Principal(r), req.PromoID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// AdminDeleteUserHandler handles POST /admin/users/delete
func (a *App) AdminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int64  `json:"userId"`
		PasswordHash string `json:"passwordHash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p := middleware.Principal(r)
	if p == nil {
		writeError(w, models.ErrUnauthorized)
		return
	}
	if p.Role != models.RoleAdmin {
		writeError(w, models.ErrForbidden)
		return
	}
	if err := a.accountService.DeleteAccount(r.Context(), p, req.UserID, req.PasswordHash); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// ListAdminLogsHandler handles GET /admin/logs
func (a *App) ListAdminLogsHandler(w http.ResponseWriter, r *http.Request) {
	p := middleware.Principal(r)
	if p == nil {
		writeError(w, models.ErrUnauthorized)
		return
	}

	userID := p.UserID
	if uid := r.URL.Query().Get("userId"); uid != "" {
		if parsed, err := strconv.ParseInt(uid, 10, 64); err == nil {
			userID = parsed
		}
	}

	logs, err := a.adminService.Logs(r.Context(), p, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// DeleteAdminLogsHandler handles DELETE /admin/logs
func (a *App) DeleteAdminLogsHandler(w http.ResponseWriter, r *http.Request) {
	p := middleware.Principal(r)
	if p == nil {
		writeError(w, models.ErrUnauthorized)
		return
	}

	userID := p.UserID
	if uid := r.URL.Query().Get("userId"); uid != "" {
		if parsed, err := strconv.ParseInt(uid, 10, 64); err == nil {
			userID = parsed
		}
	}

	if err := a.adminService.DeleteLogs(r.Context(), p, userID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}
