// Package migrations embeds the numbered SQL schema migrations
package migrations

import "embed"

// FS holds every *.sql migration at its root
//
//go:embed *.sql
var FS embed.FS
