// Package migrations compiles the schema files into the binary so a
// deployed Roomcast never depends on loose .sql files.
package migrations

import (
	"embed"

	"github.com/roomcast/roomcast-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // files sit at the root of the embed
}
