// Package migrations embeds the user service schema: users, roles and their
// join table.
package migrations

import "embed"

// FS holds the *.up.sql files applied at startup.
//
//go:embed *.sql
var FS embed.FS
