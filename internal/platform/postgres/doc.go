// Package postgres provides PostgreSQL implementations of the store
// interfaces. It maps driver-level errors to the store's sentinel errors
// and owns every piece of SQL in the application, including the atomic
// claim statement that guarantees exclusive task ownership.
package postgres
