//go:build integration

// Package testdb provides helpers for tests that need a real PostgreSQL
// database: connection setup with migrations applied, per-test transactions
// that are always rolled back, and fixture inserts.
//
// Tests using this package carry the integration build tag and are skipped
// when DATABASE_URL (or STUDYDECK_TEST_DB_URL) is unset.
package testdb
