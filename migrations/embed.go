// Package migrations embeds the Postgres schema for the appointment slot
// store so cmd/migrate ships as a single binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
