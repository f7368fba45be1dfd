// Package migrations embeds the SQL schema.
package migrations

import "embed"

// FS holds the schema files.
//
//go:embed *.sql
var FS embed.FS

// InitialSchema is the file that creates the Tasks and TimePieces tables.
const InitialSchema = "001_initial_schema.up.sql"
