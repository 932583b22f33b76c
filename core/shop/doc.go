// Package shop implements a rest backend for a small e-commerce system
// with users, products and orders.
//
// Orders and products are in a many-to-many relationship. The association
// is maintained through the add_product and remove_product order routes,
// adding a product twice or removing one that was never added is reported
// as an error.
//
// The backend is realized with a Builder:
//
//	db := csql.OpenWithSchema(postgres, password, "shop")
//	router := mux.NewRouter()
//	shop.New(&shop.Builder{
//		DB:     db,
//		Router: router,
//	})
//	http.ListenAndServe(":3000", router)
//
// Persistence is pluggable through the Store interface. NewSQLStore keeps
// the data in postgres, NewMemoryStore keeps it in process memory for
// tests and experiments.
package shop
