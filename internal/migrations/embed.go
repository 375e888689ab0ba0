// Package migrations хранит SQL-миграции схемы для goose.
package migrations

import "embed"

// Latest версия схемы, с которой работает код
const Latest int64 = 4

//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
