package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/commercekit/shopapi/core/csql"
)

// postgres error codes we care about
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// SQLStore implements Store on a postgres database.
//
// The order_products table carries a unique constraint on the
// (order_id, product_id) pair, which makes the add operation a true
// create-if-absent primitive: two concurrent adds of the same pair race on
// the constraint, not on an application-level check.
type SQLStore struct {
	db *csql.DB
}

// NewSQLStore creates the shop tables in the database's schema if they do
// not exist yet and returns a store operating on them.
func NewSQLStore(db *csql.DB) *SQLStore {
	schema := db.Schema
	createQuery := fmt.Sprintf(`
CREATE table IF NOT EXISTS %[1]s."users"
(id BIGSERIAL PRIMARY KEY,
name varchar NOT NULL,
address varchar NOT NULL,
email varchar NOT NULL,
UNIQUE (email)
);
CREATE table IF NOT EXISTS %[1]s."products"
(id BIGSERIAL PRIMARY KEY,
product_name varchar NOT NULL,
price double precision NOT NULL
);
CREATE table IF NOT EXISTS %[1]s."orders"
(id BIGSERIAL PRIMARY KEY,
order_date timestamp NOT NULL DEFAULT now(),
user_id bigint NOT NULL,
FOREIGN KEY (user_id) REFERENCES %[1]s."users" (id) ON DELETE CASCADE
);
CREATE table IF NOT EXISTS %[1]s."order_products"
(serial SERIAL,
order_id bigint NOT NULL,
product_id bigint NOT NULL,
FOREIGN KEY (order_id) REFERENCES %[1]s."orders" (id) ON DELETE CASCADE,
FOREIGN KEY (product_id) REFERENCES %[1]s."products" (id) ON DELETE CASCADE,
UNIQUE (order_id, product_id)
);`, schema)

	_, err := db.Exec(createQuery)
	if err != nil {
		panic(err)
	}
	return &SQLStore{db: db}
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func (s *SQLStore) CreateUser(ctx context.Context, user User) (User, error) {
	query := fmt.Sprintf(`INSERT INTO %s."users" (name, address, email) VALUES($1,$2,$3) RETURNING id;`, s.db.Schema)
	err := s.db.QueryRowContext(ctx, query, user.Name, user.Address, user.Email).Scan(&user.ID)
	if pqCode(err) == pqUniqueViolation {
		return User{}, ErrDuplicateEmail
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (User, error) {
	query := fmt.Sprintf(`SELECT id, name, address, email FROM %s."users" WHERE id = $1;`, s.db.Schema)
	var user User
	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Address, &user.Email)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	query := fmt.Sprintf(`SELECT id, name, address, email FROM %s."users" ORDER BY id;`, s.db.Schema)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Address, &user.Email); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLStore) UpdateUser(ctx context.Context, id int64, update UserUpdate) (User, error) {
	query := fmt.Sprintf(`UPDATE %s."users" SET
name = COALESCE($2, name),
address = COALESCE($3, address),
email = COALESCE($4, email)
WHERE id = $1 RETURNING id, name, address, email;`, s.db.Schema)
	var user User
	err := s.db.QueryRowContext(ctx, query, id, update.Name, update.Address, update.Email).
		Scan(&user.ID, &user.Name, &user.Address, &user.Email)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	if pqCode(err) == pqUniqueViolation {
		return User{}, ErrDuplicateEmail
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s."users" WHERE id = $1;`, s.db.Schema)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLStore) CreateProduct(ctx context.Context, product Product) (Product, error) {
	query := fmt.Sprintf(`INSERT INTO %s."products" (product_name, price) VALUES($1,$2) RETURNING id;`, s.db.Schema)
	err := s.db.QueryRowContext(ctx, query, product.ProductName, product.Price).Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *SQLStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	query := fmt.Sprintf(`SELECT id, product_name, price FROM %s."products" WHERE id = $1;`, s.db.Schema)
	var product Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.ProductName, &product.Price)
	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *SQLStore) ListProducts(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf(`SELECT id, product_name, price FROM %s."products" ORDER BY id;`, s.db.Schema)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.ProductName, &product.Price); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *SQLStore) UpdateProduct(ctx context.Context, id int64, update ProductUpdate) (Product, error) {
	query := fmt.Sprintf(`UPDATE %s."products" SET
product_name = COALESCE($2, product_name),
price = COALESCE($3, price)
WHERE id = $1 RETURNING id, product_name, price;`, s.db.Schema)
	var product Product
	err := s.db.QueryRowContext(ctx, query, id, update.ProductName, update.Price).
		Scan(&product.ID, &product.ProductName, &product.Price)
	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *SQLStore) DeleteProduct(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s."products" WHERE id = $1;`, s.db.Schema)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *SQLStore) CreateOrder(ctx context.Context, userID int64, orderDate time.Time) (Order, error) {
	query := fmt.Sprintf(`INSERT INTO %s."orders" (user_id, order_date) VALUES($1,$2) RETURNING id, order_date;`, s.db.Schema)
	order := Order{UserID: userID, Products: []Product{}}
	err := s.db.QueryRowContext(ctx, query, userID, orderDate).Scan(&order.ID, &order.OrderDate)
	if pqCode(err) == pqForeignKeyViolation {
		return Order{}, ErrUserNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (s *SQLStore) GetOrder(ctx context.Context, id int64) (Order, error) {
	query := fmt.Sprintf(`SELECT id, order_date, user_id FROM %s."orders" WHERE id = $1;`, s.db.Schema)
	var order Order
	err := s.db.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.OrderDate, &order.UserID)
	if err == sql.ErrNoRows {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	order.Products, err = s.orderProducts(ctx, s.db.DB, id)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *SQLStore) orderProducts(ctx context.Context, q querier, orderID int64) ([]Product, error) {
	query := fmt.Sprintf(`SELECT p.id, p.product_name, p.price
FROM %[1]s."order_products" op JOIN %[1]s."products" p ON p.id = op.product_id
WHERE op.order_id = $1 ORDER BY op.serial;`, s.db.Schema)
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.ProductName, &product.Price); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// orderExists and productExists report a well-known error when the entity is
// missing, so that the caller can distinguish a missing order from a missing
// product before any association row is touched.
func (s *SQLStore) orderExists(ctx context.Context, tx *sql.Tx, id int64) error {
	query := fmt.Sprintf(`SELECT id FROM %s."orders" WHERE id = $1;`, s.db.Schema)
	err := tx.QueryRowContext(ctx, query, id).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	return err
}

func (s *SQLStore) productExists(ctx context.Context, tx *sql.Tx, id int64) error {
	query := fmt.Sprintf(`SELECT id FROM %s."products" WHERE id = $1;`, s.db.Schema)
	err := tx.QueryRowContext(ctx, query, id).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrProductNotFound
	}
	return err
}

func (s *SQLStore) AddProductToOrder(ctx context.Context, orderID, productID int64) (Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	var order Order
	query := fmt.Sprintf(`SELECT id, order_date, user_id FROM %s."orders" WHERE id = $1;`, s.db.Schema)
	err = tx.QueryRowContext(ctx, query, orderID).Scan(&order.ID, &order.OrderDate, &order.UserID)
	if err == sql.ErrNoRows {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if err := s.productExists(ctx, tx, productID); err != nil {
		return Order{}, err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s."order_products" (order_id, product_id) VALUES($1,$2);`, s.db.Schema)
	_, err = tx.ExecContext(ctx, insertQuery, orderID, productID)
	if pqCode(err) == pqUniqueViolation {
		return Order{}, ErrProductAlreadyInOrder
	}
	if err != nil {
		return Order{}, err
	}

	order.Products, err = s.orderProducts(ctx, tx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (s *SQLStore) RemoveProductFromOrder(ctx context.Context, orderID, productID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.orderExists(ctx, tx, orderID); err != nil {
		return err
	}
	if err := s.productExists(ctx, tx, productID); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s."order_products" WHERE order_id = $1 AND product_id = $2;`, s.db.Schema)
	res, err := tx.ExecContext(ctx, deleteQuery, orderID, productID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProductNotInOrder
	}
	return tx.Commit()
}

func (s *SQLStore) ProductsForOrder(ctx context.Context, orderID int64) ([]Product, error) {
	query := fmt.Sprintf(`SELECT id FROM %s."orders" WHERE id = $1;`, s.db.Schema)
	var id int64
	err := s.db.QueryRowContext(ctx, query, orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.orderProducts(ctx, s.db.DB, orderID)
}

func (s *SQLStore) OrdersForUser(ctx context.Context, userID int64) ([]Order, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, order_date, user_id FROM %s."orders" WHERE user_id = $1 ORDER BY id;`, s.db.Schema)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	index := map[int64]int{}
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.OrderDate, &order.UserID); err != nil {
			return nil, err
		}
		order.Products = []Product{}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// one query for the products of all orders, grouped in memory
	productsQuery := fmt.Sprintf(`SELECT op.order_id, p.id, p.product_name, p.price
FROM %[1]s."order_products" op
JOIN %[1]s."products" p ON p.id = op.product_id
JOIN %[1]s."orders" o ON o.id = op.order_id
WHERE o.user_id = $1 ORDER BY op.serial;`, s.db.Schema)
	productRows, err := s.db.QueryContext(ctx, productsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer productRows.Close()
	for productRows.Next() {
		var orderID int64
		var product Product
		if err := productRows.Scan(&orderID, &product.ID, &product.ProductName, &product.Price); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Products = append(orders[i].Products, product)
		}
	}
	return orders, productRows.Err()
}

func (s *SQLStore) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	for _, count := range []struct {
		table string
		value *int64
	}{
		{"users", &stats.Users},
		{"products", &stats.Products},
		{"orders", &stats.Orders},
		{"order_products", &stats.OrderProducts},
	} {
		query := fmt.Sprintf(`SELECT count(*) FROM %s."%s";`, s.db.Schema, count.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(count.value); err != nil {
			return Statistics{}, err
		}
	}
	return stats, nil
}
