package shop

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/commercekit/shopapi/core/logger"
)

func (b *Backend) handleUserRoutes(router *mux.Router) {
	logger.Default().Debugln("handle user routes: /users")

	router.HandleFunc("/users", b.usersList).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/users", b.userCreate).Methods(http.MethodOptions, http.MethodPost)
	router.HandleFunc("/users/{user_id:[0-9]+}", b.userGet).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/users/{user_id:[0-9]+}", b.userUpdate).Methods(http.MethodOptions, http.MethodPut)
	router.HandleFunc("/users/{user_id:[0-9]+}", b.userDelete).Methods(http.MethodOptions, http.MethodDelete)
}

func (b *Backend) usersList(w http.ResponseWriter, r *http.Request) {
	users, err := b.store.ListUsers(r.Context())
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) userCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := b.readValidBody(w, r, schemaUserCreate)
	if !ok {
		return
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := b.store.CreateUser(r.Context(), user)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "user", OperationCreate, created.ID, created)
	writeJSON(w, http.StatusCreated, created)
}

func (b *Backend) userGet(w http.ResponseWriter, r *http.Request) {
	user, err := b.store.GetUser(r.Context(), idFromRequest(r, "user_id"))
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) userUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := b.readValidBody(w, r, schemaUserUpdate)
	if !ok {
		return
	}
	var update UserUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := b.store.UpdateUser(r.Context(), idFromRequest(r, "user_id"), update)
	if err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "user", OperationUpdate, user.ID, user)
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) userDelete(w http.ResponseWriter, r *http.Request) {
	id := idFromRequest(r, "user_id")
	if err := b.store.DeleteUser(r.Context(), id); err != nil {
		b.writeStoreError(w, r, err)
		return
	}
	b.notify(r.Context(), "user", OperationDelete, id, nil)
	writeMessage(w, fmt.Sprintf("User %d deleted successfully", id))
}
