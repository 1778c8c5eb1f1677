// Package migrations embeds the SQL schema migrations so tests can apply
// them without the migrate tool.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
