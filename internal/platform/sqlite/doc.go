// Package sqlite implements the store interfaces on an embedded SQLite
// database using the pure Go modernc.org/sqlite driver.
//
// UUIDs are stored as TEXT and timestamps as INTEGER unix microseconds so that
// ordering by time is ordering by integer. Writes serialize on the database
// lock: every transaction is opened with BEGIN IMMEDIATE, which makes
// GetStateForUpdate equivalent to GetState.
package sqlite
