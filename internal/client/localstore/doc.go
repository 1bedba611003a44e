// Package localstore is the on-device store of the meal planner.
//
// It opens the SQLite database, brings its schema up to date with the
// embedded migrations and hands out repositories bound either to the
// database or to a single transaction. Failures of the storage engine
// itself are reported as common.ErrStorageUnavailable so callers can fall
// back to network-only operation.
package localstore
