// Package postgres provides the PostgreSQL key-value backend. Connections go
// through the pgx stdlib driver; statements run against the kv_entries table
// created by the migrations package.
package postgres
