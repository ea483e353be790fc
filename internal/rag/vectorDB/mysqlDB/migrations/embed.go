// Package migrations embeds the MySQL schema files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
