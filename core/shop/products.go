package shop

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/commercekit/shopapi/core/logger"
)

func (b *Backend) handleProductRoutes(router *mux.Router) {
	logger.Default().Debugln("handle product routes: /products")

	router.HandleFunc("/products", b.productsList).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/products", b.productCreate).Methods(http.MethodOptions, http.MethodPost)
	router.HandleFunc("/products/{product_id:[0-9]+}", b.productGet).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/products/{product_id:[0-9]+}", b.productUpdate).Methods(http.MethodOptions, http.MethodPut)
	router.HandleFunc("/products/{product_id:[0-9]+}", b.productDelete).Methods(http.MethodOptions, http.MethodDelete)
}

func (b *Backend) productsList(w http.ResponseWriter, r *http.Request) {
	products, err := b.store.ListProducts(r.Context())
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (b *Backend) productCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := b.readValidBody(w, r, schemaProductCreate)
	if !ok {
		return
	}
	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := b.store.CreateProduct(r.Context(), product)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "product", OperationCreate, created.ID, created)
	writeJSON(w, http.StatusCreated, created)
}

func (b *Backend) productGet(w http.ResponseWriter, r *http.Request) {
	product, err := b.store.GetProduct(r.Context(), idFromRequest(r, "product_id"))
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (b *Backend) productUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := b.readValidBody(w, r, schemaProductUpdate)
	if !ok {
		return
	}
	var update ProductUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := b.store.UpdateProduct(r.Context(), idFromRequest(r, "product_id"), update)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "product", OperationUpdate, product.ID, product)
	writeJSON(w, http.StatusOK, product)
}

func (b *Backend) productDelete(w http.ResponseWriter, r *http.Request) {
	id := idFromRequest(r, "product_id")
	if err := b.store.DeleteProduct(r.Context(), id); err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "product", OperationDelete, id, nil)
	writeMessage(w, fmt.Sprintf("Product %d deleted successfully", id))
}
