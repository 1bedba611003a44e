// Package common contains shared constants and sentinel errors used across
// the meal planner client components.
package common

// DateLayout is the wire and storage format of calendar dates (menu start
// dates, entry dates).
const DateLayout = "2006-01-02"

// TempIDPrefix marks identifiers generated locally for rows that have not
// yet been confirmed by the remote service.
const TempIDPrefix = "temp-"

// MaxSyncRetries is the number of failed attempts after which a queued
// mutation is abandoned.
const MaxSyncRetries = 3

// Metadata keys of the local store.
const (
	MetaLastSyncTime  = "lastSyncTime"
	MetaAbandonedJobs = "abandonedCount"
	// MetaUserFingerprint identifies this install when starring menus.
	MetaUserFingerprint = "userFingerprint"
	// MetaMenuIDPrefix + temp id holds the server id the temp menu became.
	MetaMenuIDPrefix = "menuId:"
)
