// Package migrations embeds the schema of the hosted backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
