package shop

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store on plain maps. It is the store of choice for
// unit tests and local experiments where no database is around.
type MemoryStore struct {
	mutex sync.Mutex

	users    map[int64]User
	products map[int64]Product
	orders   map[int64]Order

	// product ids per order, in insertion order
	orderProducts map[int64][]int64

	nextUserID    int64
	nextProductID int64
	nextOrderID   int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         map[int64]User{},
		products:      map[int64]Product{},
		orders:        map[int64]Order{},
		orderProducts: map[int64][]int64{},
	}
}

func (s *MemoryStore) emailTaken(email string, exceptUserID int64) bool {
	for _, user := range s.users {
		if user.Email == email && user.ID != exceptUserID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateUser(ctx context.Context, user User) (User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.emailTaken(user.Email, 0) {
		return User{}, ErrDuplicateEmail
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	users := []User{}
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id int64, update UserUpdate) (User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if update.Email != nil && s.emailTaken(*update.Email, id) {
		return User{}, ErrDuplicateEmail
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Address != nil {
		user.Address = *update.Address
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	s.users[id] = user
	return user, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	// deleting a user takes their orders along
	for orderID, order := range s.orders {
		if order.UserID == id {
			delete(s.orders, orderID)
			delete(s.orderProducts, orderID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, product Product) (Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextProductID++
	product.ID = s.nextProductID
	s.products[product.ID] = product
	return product, nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return product, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	products := []Product{}
	for _, product := range s.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, id int64, update ProductUpdate) (Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	if update.ProductName != nil {
		product.ProductName = *update.ProductName
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	s.products[id] = product
	return product, nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	// deleting a product takes its order associations along
	for orderID, productIDs := range s.orderProducts {
		remaining := productIDs[:0]
		for _, productID := range productIDs {
			if productID != id {
				remaining = append(remaining, productID)
			}
		}
		s.orderProducts[orderID] = remaining
	}
	return nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, userID int64, orderDate time.Time) (Order, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.users[userID]; !ok {
		return Order{}, ErrUserNotFound
	}
	s.nextOrderID++
	order := Order{
		ID:        s.nextOrderID,
		OrderDate: orderDate,
		UserID:    userID,
		Products:  []Product{},
	}
	s.orders[order.ID] = order
	s.orderProducts[order.ID] = []int64{}
	return order, nil
}

// productsLocked resolves an order's product ids to products. Must be called
// with the mutex held.
func (s *MemoryStore) productsLocked(orderID int64) []Product {
	products := []Product{}
	for _, productID := range s.orderProducts[orderID] {
		if product, ok := s.products[productID]; ok {
			products = append(products, product)
		}
	}
	return products
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (Order, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	order.Products = s.productsLocked(id)
	return order, nil
}

func (s *MemoryStore) AddProductToOrder(ctx context.Context, orderID, productID int64) (Order, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if _, ok := s.products[productID]; !ok {
		return Order{}, ErrProductNotFound
	}
	for _, existing := range s.orderProducts[orderID] {
		if existing == productID {
			return Order{}, ErrProductAlreadyInOrder
		}
	}
	s.orderProducts[orderID] = append(s.orderProducts[orderID], productID)
	order.Products = s.productsLocked(orderID)
	return order, nil
}

func (s *MemoryStore) RemoveProductFromOrder(ctx context.Context, orderID, productID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return ErrOrderNotFound
	}
	if _, ok := s.products[productID]; !ok {
		return ErrProductNotFound
	}
	productIDs := s.orderProducts[orderID]
	for i, existing := range productIDs {
		if existing == productID {
			s.orderProducts[orderID] = append(productIDs[:i], productIDs[i+1:]...)
			return nil
		}
	}
	return ErrProductNotInOrder
}

func (s *MemoryStore) ProductsForOrder(ctx context.Context, orderID int64) ([]Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return nil, ErrOrderNotFound
	}
	return s.productsLocked(orderID), nil
}

func (s *MemoryStore) OrdersForUser(ctx context.Context, userID int64) ([]Order, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	orders := []Order{}
	for _, order := range s.orders {
		if order.UserID == userID {
			order.Products = s.productsLocked(order.ID)
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (s *MemoryStore) Statistics(ctx context.Context) (Statistics, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stats := Statistics{
		Users:    int64(len(s.users)),
		Products: int64(len(s.products)),
		Orders:   int64(len(s.orders)),
	}
	for _, productIDs := range s.orderProducts {
		stats.OrderProducts += int64(len(productIDs))
	}
	return stats, nil
}
