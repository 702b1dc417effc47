// Package migrations embeds the forward-only schema applied at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
