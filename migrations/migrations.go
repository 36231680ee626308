// Package migrations embeds the SQL schema migrations so they can be applied
// with golang-migrate from the binary or from tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
