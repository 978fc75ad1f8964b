// Package postgres implements the store interfaces on PostgreSQL through the
// pgx stdlib driver. It owns the embedded goose migrations for the cards,
// review_log and review_states tables and maps PostgreSQL error codes onto the
// store package's error values.
package postgres
