package shop

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/commercekit/shopapi/core/logger"
)

// accepted layouts for the order_date request field, most specific first
var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseOrderDate(value string) (time.Time, error) {
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse order date %q", value)
}

func (b *Backend) handleOrderRoutes(router *mux.Router) {
	logger.Default().Debugln("handle order routes: /orders")

	router.HandleFunc("/orders", b.orderCreate).Methods(http.MethodOptions, http.MethodPost)
	router.HandleFunc("/orders/{order_id:[0-9]+}", b.orderGet).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/orders/{order_id:[0-9]+}/add_product/{product_id:[0-9]+}", b.orderAddProduct).Methods(http.MethodOptions, http.MethodPut)
	router.HandleFunc("/orders/{order_id:[0-9]+}/remove_product/{product_id:[0-9]+}", b.orderRemoveProduct).Methods(http.MethodOptions, http.MethodDelete)
	router.HandleFunc("/orders/{order_id:[0-9]+}/products", b.orderProducts).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/orders/user/{user_id:[0-9]+}", b.userOrders).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) orderCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := b.readValidBody(w, r, schemaOrderCreate)
	if !ok {
		return
	}
	var request struct {
		UserID    int64  `json:"user_id"`
		OrderDate string `json:"order_date"`
	}
	if err := json.Unmarshal(body, &request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderDate := time.Now().UTC()
	if request.OrderDate != "" {
		var err error
		orderDate, err = parseOrderDate(request.OrderDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format. Use ISO format (YYYY-MM-DD HH:MM:SS)")
			return
		}
	}

	order, err := b.store.CreateOrder(r.Context(), request.UserID, orderDate)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "order", OperationCreate, order.ID, order)
	writeJSON(w, http.StatusCreated, order)
}

func (b *Backend) orderGet(w http.ResponseWriter, r *http.Request) {
	order, err := b.store.GetOrder(r.Context(), idFromRequest(r, "order_id"))
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (b *Backend) orderAddProduct(w http.ResponseWriter, r *http.Request) {
	orderID := idFromRequest(r, "order_id")
	productID := idFromRequest(r, "product_id")
	order, err := b.store.AddProductToOrder(r.Context(), orderID, productID)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "order", OperationUpdate, order.ID, order)
	writeJSON(w, http.StatusOK, order)
}

func (b *Backend) orderRemoveProduct(w http.ResponseWriter, r *http.Request) {
	orderID := idFromRequest(r, "order_id")
	productID := idFromRequest(r, "product_id")
	if err := b.store.RemoveProductFromOrder(r.Context(), orderID, productID); err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "order", OperationUpdate, orderID, nil)
	writeMessage(w, fmt.Sprintf("Product %d removed from order %d", productID, orderID))
}

func (b *Backend) orderProducts(w http.ResponseWriter, r *http.Request) {
	products, err := b.store.ProductsForOrder(r.Context(), idFromRequest(r, "order_id"))
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (b *Backend) userOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := b.store.OrdersForUser(r.Context(), idFromRequest(r, "user_id"))
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
