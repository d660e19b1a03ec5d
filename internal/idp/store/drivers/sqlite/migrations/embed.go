// Package migrations embeds the identity provider schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
