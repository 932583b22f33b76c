package shop

import (
	"context"
	"errors"
	"time"
)

// User is a registered customer. The email address is unique across users.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// Product is a purchasable item.
type Product struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
}

// Order belongs to exactly one user and carries a set of products. A product
// can appear at most once per order.
type Order struct {
	ID        int64     `json:"id"`
	OrderDate time.Time `json:"order_date"`
	UserID    int64     `json:"user_id"`
	Products  []Product `json:"products"`
}

// UserUpdate carries a partial update for a user. Nil fields are left untouched.
type UserUpdate struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
}

// ProductUpdate carries a partial update for a product. Nil fields are left untouched.
type ProductUpdate struct {
	ProductName *string  `json:"product_name"`
	Price       *float64 `json:"price"`
}

// Statistics represents row counts for all shop resources.
type Statistics struct {
	Users         int64 `json:"users"`
	Products      int64 `json:"products"`
	Orders        int64 `json:"orders"`
	OrderProducts int64 `json:"order_products"`
}

// well-known store errors, mapped to client-facing status codes by the handlers
var (
	// ErrUserNotFound is returned when a user id does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound is returned when a product id does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound is returned when an order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductAlreadyInOrder is returned when a product is added to an
	// order it already belongs to. The store guarantees that the duplicate
	// add did not create a second association row.
	ErrProductAlreadyInOrder = errors.New("product already exists in this order")
	// ErrProductNotInOrder is returned when a product is removed from an
	// order it does not belong to. This is distinct from ErrProductNotFound:
	// the product exists, it just is not associated with this order.
	ErrProductNotInOrder = errors.New("product not found in this order")
	// ErrDuplicateEmail is returned when a user create or update would
	// violate the unique email constraint.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store is the persistence handle for all shop resources.
//
// Every composite operation is atomic: it either fully commits or leaves the
// persisted state untouched. AddProductToOrder must behave as create-if-absent
// so that concurrent adds of the same (order, product) pair cannot produce a
// duplicate association row.
//
// Deleting a user deletes the user's orders and their associations; deleting
// a product removes it from all orders.
type Store interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) (User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, update ProductUpdate) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, userID int64, orderDate time.Time) (Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)

	// AddProductToOrder associates a product with an order and returns the
	// updated order. Both the order and the product must exist.
	AddProductToOrder(ctx context.Context, orderID, productID int64) (Order, error)
	// RemoveProductFromOrder removes the association between an order and a
	// product. Both must exist, and the product must be associated with the
	// order.
	RemoveProductFromOrder(ctx context.Context, orderID, productID int64) error
	// ProductsForOrder returns the products associated with an order, in
	// insertion order.
	ProductsForOrder(ctx context.Context, orderID int64) ([]Product, error)
	// OrdersForUser returns all orders of a user, including their products.
	OrdersForUser(ctx context.Context, userID int64) ([]Order, error)

	Statistics(ctx context.Context) (Statistics, error)
}
