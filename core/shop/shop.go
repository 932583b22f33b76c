package shop

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/commercekit/shopapi/core/csql"
	"github.com/commercekit/shopapi/core/logger"
	"github.com/commercekit/shopapi/core/schema"
)

// Backend is the shop rest backend
type Backend struct {
	store     Store
	router    *mux.Router
	notifier  Notifier
	validator *schema.Validator
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Store is the persistence handle. Either Store or DB is mandatory.
	Store Store
	// DB is a postgres database. When Store is nil, a SQL store is
	// created on it.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Notifier receives entity change events. This is optional.
	Notifier Notifier
}

// New realizes the actual backend. It creates the sql tables (if they
// do not exist) and adds actual routes to router
func New(bb *Builder) *Backend {

	store := bb.Store
	if store == nil {
		if bb.DB == nil {
			panic("store or DB is missing")
		}
		store = NewSQLStore(bb.DB)
	}

	if bb.Router == nil {
		panic("router is missing")
	}

	validator, err := schema.NewValidator(requestSchemas, nil)
	if err != nil {
		panic(err)
	}

	b := &Backend{
		store:     store,
		router:    bb.Router,
		notifier:  bb.Notifier,
		validator: validator,
	}

	logger.AddRequestID(b.router)
	b.handleCORS()
	b.handleCompression()

	b.handleHomeRoute(b.router)
	b.handleVersionRoute(b.router)
	b.handleStatisticsRoute(b.router)
	b.handleUserRoutes(b.router)
	b.handleProductRoutes(b.router)
	b.handleOrderRoutes(b.router)

	return b
}

// Store returns the backend's persistence handle
func (b *Backend) Store() Store {
	return b.store
}

func writeJSON(w http.ResponseWriter, status int, result interface{}) {
	body, _ := json.Marshal(result)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// writeStoreError maps the well-known store errors to their status code and
// client-facing message. Anything else is an internal error and is logged
// with the request id rather than leaked to the client.
func (b *Backend) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrProductNotInOrder):
		writeError(w, http.StatusNotFound, "Product not found in this order")
	case errors.Is(err, ErrProductAlreadyInOrder):
		writeError(w, http.StatusBadRequest, "Product already exists in this order")
	case errors.Is(err, ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Email already exists")
	default:
		logger.FromContext(r.Context()).Errorln("store error:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (b *Backend) handleHomeRoute(router *mux.Router) {
	logger.Default().Debugln("handle home route: / GET")

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Welcome to the shop API",
			"endpoints": map[string]map[string]string{
				"users": {
					"GET /users":         "Retrieve all users",
					"GET /users/{id}":    "Retrieve a user by ID",
					"POST /users":        "Create a new user",
					"PUT /users/{id}":    "Update a user by ID",
					"DELETE /users/{id}": "Delete a user by ID",
				},
				"products": {
					"GET /products":         "Retrieve all products",
					"GET /products/{id}":    "Retrieve a product by ID",
					"POST /products":        "Create a new product",
					"PUT /products/{id}":    "Update a product by ID",
					"DELETE /products/{id}": "Delete a product by ID",
				},
				"orders": {
					"POST /orders": "Create a new order",
					"PUT /orders/{order_id}/add_product/{product_id}":       "Add a product to an order",
					"DELETE /orders/{order_id}/remove_product/{product_id}": "Remove a product from an order",
					"GET /orders/user/{user_id}":                            "Get all orders for a user",
					"GET /orders/{order_id}/products":                       "Get all products for an order",
				},
			},
		})
	}).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) handleVersionRoute(router *mux.Router) {
	logger.Default().Debugln("handle version route: /version GET")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	}).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) handleStatisticsRoute(router *mux.Router) {
	logger.Default().Debugln("handle statistics route: /statistics GET")

	router.HandleFunc("/statistics", func(w http.ResponseWriter, r *http.Request) {
		stats, err := b.store.Statistics(r.Context())
		if err != nil {
			b.writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}).Methods(http.MethodOptions, http.MethodGet)
}
