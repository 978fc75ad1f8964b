// Package store defines the persistence contracts of the scheduling engine: the
// card catalog owned by the deck/card collaborator and the append-only review log
// with its materialized current-state projection. Implementations live under
// internal/platform and share the transaction helpers and error values defined here.
package store
