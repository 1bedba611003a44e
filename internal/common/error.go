package common

import "errors"

var (
	// ErrStorageUnavailable means the local store cannot be opened or used.
	// Callers degrade to network-only mode.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrNetworkUnavailable means the remote service could not be reached.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrNotFound is returned by lookups that require a row to exist.
	ErrNotFound = errors.New("not found")

	// ErrSyncExhausted marks a queued mutation abandoned after MaxSyncRetries.
	ErrSyncExhausted = errors.New("sync retries exhausted")

	// ErrPendingSync is the soft failure of a write: the change is visible
	// locally and queued, but not confirmed by the remote service.
	ErrPendingSync = errors.New("change saved locally, pending sync")

	// ErrOffline is returned when an operation requires connectivity.
	ErrOffline = errors.New("offline")

	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation error")

	// ErrInvalidEditKey is returned when an edit key does not match a menu.
	ErrInvalidEditKey = errors.New("invalid edit key")
)
