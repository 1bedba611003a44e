// Package menus stores cached menus in SQLite.
//
// Rows are keyed by id and carry a unique short_id index. Lookups of absent
// rows return (nil, nil). Writing a menu whose short_id belongs to another
// row replaces that row, which happens when a locally created menu is
// confirmed by the server under a new id.
package menus
