package shop

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/shopapi/core/client"
)

type testService struct {
	backend  *Backend
	store    *MemoryStore
	client   client.Client
	notifier *recordingNotifier
}

// recordingNotifier keeps the published notifications in memory
type recordingNotifier struct {
	notifications []Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, notification Notification) error {
	n.notifications = append(n.notifications, notification)
	return nil
}

func newTestService() *testService {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	router := mux.NewRouter()
	backend := New(&Builder{
		Store:    store,
		Router:   router,
		Notifier: notifier,
	})
	return &testService{
		backend:  backend,
		store:    store,
		client:   client.NewWithRouter(router),
		notifier: notifier,
	}
}

func (ts *testService) createUser(t *testing.T, name, address, email string) User {
	var user User
	_, err := ts.client.RawPost("/users", map[string]string{
		"name": name, "address": address, "email": email,
	}, &user)
	require.NoError(t, err)
	return user
}

func (ts *testService) createProduct(t *testing.T, name string, price float64) Product {
	var product Product
	_, err := ts.client.RawPost("/products", map[string]interface{}{
		"product_name": name, "price": price,
	}, &product)
	require.NoError(t, err)
	return product
}

func (ts *testService) createOrder(t *testing.T, userID int64) Order {
	var order Order
	_, err := ts.client.RawPost("/orders", map[string]interface{}{
		"user_id": userID,
	}, &order)
	require.NoError(t, err)
	return order
}

func TestUserCRUD(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")
	assert.NotZero(t, jane.ID)
	assert.Equal(t, "Jane Doe", jane.Name)

	var got User
	status, err := cl.RawGet(fmt.Sprintf("/users/%d", jane.ID), &got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, jane, got)

	// creating a second user with the same email fails
	status, err = cl.RawPost("/users", map[string]string{
		"name": "Fake Jane", "address": "2 Main St", "email": "jane@example.com",
	}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "Email already exists")

	ts.createUser(t, "John Doe", "2 Main St", "john@example.com")
	var users []User
	_, err = cl.RawGet("/users", &users)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// partial update only touches the provided fields
	var updated User
	status, err = cl.RawPut(fmt.Sprintf("/users/%d", jane.ID), map[string]string{
		"address": "7 High St",
	}, &updated)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "7 High St", updated.Address)
	assert.Equal(t, "jane@example.com", updated.Email)

	var result map[string]string
	status, err = cl.RawDelete(fmt.Sprintf("/users/%d", jane.ID), &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("User %d deleted successfully", jane.ID), result["message"])

	status, _ = cl.RawGet(fmt.Sprintf("/users/%d", jane.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserValidation(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	// missing required fields
	status, err := cl.RawPost("/users", map[string]string{"name": "Jane"}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)

	// unknown fields are rejected rather than silently dropped
	status, _ = cl.RawPost("/users", map[string]string{
		"name": "Jane", "address": "1 Main St", "email": "jane@example.com", "role": "admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// non-numeric ids do not match any route
	status, _ = cl.RawGet("/users/jane", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductCRUD(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	mouse := ts.createProduct(t, "Mouse", 19.99)
	assert.NotZero(t, mouse.ID)

	var got Product
	_, err := cl.RawGet(fmt.Sprintf("/products/%d", mouse.ID), &got)
	require.NoError(t, err)
	assert.Equal(t, mouse, got)

	status, err := cl.RawPost("/products", map[string]interface{}{"product_name": "Keyboard"}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)

	var updated Product
	_, err = cl.RawPut(fmt.Sprintf("/products/%d", mouse.ID), map[string]interface{}{
		"price": 14.99,
	}, &updated)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", updated.ProductName)
	assert.Equal(t, 14.99, updated.Price)

	var products []Product
	_, err = cl.RawGet("/products", &products)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	var result map[string]string
	_, err = cl.RawDelete(fmt.Sprintf("/products/%d", mouse.ID), &result)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Product %d deleted successfully", mouse.ID), result["message"])

	status, _ = cl.RawGet(fmt.Sprintf("/products/%d", mouse.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrderLifecycle(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")
	mouse := ts.createProduct(t, "Mouse", 19.99)
	keyboard := ts.createProduct(t, "Keyboard", 49.99)

	// an order without order_date gets the current time
	order := ts.createOrder(t, jane.ID)
	assert.Equal(t, jane.ID, order.UserID)
	assert.Empty(t, order.Products)
	assert.WithinDuration(t, time.Now().UTC(), order.OrderDate, time.Minute)

	// an order for an unknown user cannot be created
	status, _ := cl.RawPost("/orders", map[string]interface{}{"user_id": 424242}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var withMouse Order
	_, err := cl.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, mouse.ID), nil, &withMouse)
	require.NoError(t, err)
	require.Len(t, withMouse.Products, 1)
	assert.Equal(t, mouse.ID, withMouse.Products[0].ID)

	// a second add of the same product is rejected
	status, err = cl.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, mouse.ID), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "Product already exists in this order")

	var withBoth Order
	_, err = cl.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, keyboard.ID), nil, &withBoth)
	require.NoError(t, err)
	require.Len(t, withBoth.Products, 2)
	assert.Equal(t, mouse.ID, withBoth.Products[0].ID)
	assert.Equal(t, keyboard.ID, withBoth.Products[1].ID)

	status, _ = cl.RawPut(fmt.Sprintf("/orders/424242/add_product/%d", mouse.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = cl.RawPut(fmt.Sprintf("/orders/%d/add_product/424242", order.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var products []Product
	_, err = cl.RawGet(fmt.Sprintf("/orders/%d/products", order.ID), &products)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	var orders []Order
	_, err = cl.RawGet(fmt.Sprintf("/orders/user/%d", jane.ID), &orders)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Products, 2)

	status, _ = cl.RawGet("/orders/user/424242", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var result map[string]string
	_, err = cl.RawDelete(fmt.Sprintf("/orders/%d/remove_product/%d", order.ID, mouse.ID), &result)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Product %d removed from order %d", mouse.ID, order.ID), result["message"])

	// removing it again is not found in the order
	status, err = cl.RawDelete(fmt.Sprintf("/orders/%d/remove_product/%d", order.ID, mouse.ID), nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, err.Error(), "Product not found in this order")

	var got Order
	_, err = cl.RawGet(fmt.Sprintf("/orders/%d", order.ID), &got)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, keyboard.ID, got.Products[0].ID)
}

func TestOrderDateParsing(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")

	var order Order
	_, err := cl.RawPost("/orders", map[string]interface{}{
		"user_id": jane.ID, "order_date": "2026-05-01 13:30:00",
	}, &order)
	require.NoError(t, err)
	assert.True(t, order.OrderDate.Equal(time.Date(2026, 5, 1, 13, 30, 0, 0, time.UTC)))

	_, err = cl.RawPost("/orders", map[string]interface{}{
		"user_id": jane.ID, "order_date": "2026-05-01T13:30:00Z",
	}, nil)
	assert.NoError(t, err)

	status, err := cl.RawPost("/orders", map[string]interface{}{
		"user_id": jane.ID, "order_date": "first of May",
	}, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "Invalid date format")
}

func TestDeleteCascades(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")
	mouse := ts.createProduct(t, "Mouse", 19.99)
	order := ts.createOrder(t, jane.ID)
	_, err := cl.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, mouse.ID), nil, nil)
	require.NoError(t, err)

	// deleting the product leaves the order without the association
	_, err = cl.RawDelete(fmt.Sprintf("/products/%d", mouse.ID), nil)
	require.NoError(t, err)
	var products []Product
	_, err = cl.RawGet(fmt.Sprintf("/orders/%d/products", order.ID), &products)
	require.NoError(t, err)
	assert.Empty(t, products)

	// deleting the user takes the order along
	_, err = cl.RawDelete(fmt.Sprintf("/users/%d", jane.ID), nil)
	require.NoError(t, err)
	status, _ := cl.RawGet(fmt.Sprintf("/orders/%d", order.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServiceRoutes(t *testing.T) {
	ts := newTestService()
	cl := ts.client

	var home map[string]interface{}
	_, err := cl.RawGet("/", &home)
	require.NoError(t, err)
	assert.Contains(t, home, "endpoints")

	var version map[string]string
	_, err = cl.RawGet("/version", &version)
	require.NoError(t, err)
	assert.Equal(t, Version, version["version"])

	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")
	mouse := ts.createProduct(t, "Mouse", 19.99)
	order := ts.createOrder(t, jane.ID)
	_, err = cl.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, mouse.ID), nil, nil)
	require.NoError(t, err)

	var stats Statistics
	_, err = cl.RawGet("/statistics", &stats)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Users: 1, Products: 1, Orders: 1, OrderProducts: 1}, stats)
}

func TestNotifications(t *testing.T) {
	ts := newTestService()

	mouse := ts.createProduct(t, "Mouse", 19.99)
	jane := ts.createUser(t, "Jane Doe", "1 Main St", "jane@example.com")
	order := ts.createOrder(t, jane.ID)
	_, err := ts.client.RawPut(fmt.Sprintf("/orders/%d/add_product/%d", order.ID, mouse.ID), nil, nil)
	require.NoError(t, err)
	_, err = ts.client.RawDelete(fmt.Sprintf("/products/%d", mouse.ID), nil)
	require.NoError(t, err)

	require.Len(t, ts.notifier.notifications, 5)
	first := ts.notifier.notifications[0]
	assert.Equal(t, "product", first.Resource)
	assert.Equal(t, OperationCreate, first.Operation)
	assert.Equal(t, mouse.ID, first.ResourceID)
	assert.NotEmpty(t, first.Payload)

	last := ts.notifier.notifications[4]
	assert.Equal(t, "product", last.Resource)
	assert.Equal(t, OperationDelete, last.Operation)
}
