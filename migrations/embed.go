// Package migrations embeds the versioned SQL schema of the accounts
// database so the binaries can migrate without a migrations directory.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file
//
//go:embed *.sql
var FS embed.FS
