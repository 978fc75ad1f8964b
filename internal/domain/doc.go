// Package domain contains the core entities of the scheduling engine: study cards,
// the append-only review log, the current review state derived from it, and the
// projections handed to callers. It is independent of any storage or transport.
package domain
