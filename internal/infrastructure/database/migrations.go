package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// MigrationsFS holds the schema files Migrate applies. The migrations
// package registers its embedded filesystem here at init time; tests
// may substitute any fs.FS.
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS containing the
// .up.sql files. "." means the files sit at the root.
var MigrationsDir = "migrations"

// migration is one schema step, parsed from a filename of the form
// YYYYMMDD_HHMMSS_description.up.sql.
type migration struct {
	version string // YYYYMMDD_HHMMSS
	name    string // description
	sql     string
}

// Migrate brings the schema up to date, applying pending steps oldest
// first. Applied versions are recorded in schema_migrations.
//
// Each step runs in its own transaction: a failing step is rolled
// back, earlier steps stay committed, and later steps are not
// attempted. Re-running Migrate after fixing the broken file resumes
// from the failed step.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	steps, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("reading applied versions: %w", err)
	}

	for _, m := range steps {
		if applied[m.version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %s (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (db *DB) ensureVersionTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// applyMigration runs one step and records its version, atomically.
func (db *DB) applyMigration(ctx context.Context, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}

// loadMigrations reads every .up.sql file under MigrationsDir and
// returns the steps sorted oldest first. Files that do not match the
// migration naming scheme are ignored.
func loadMigrations() ([]migration, error) {
	if MigrationsFS == nil {
		return nil, nil
	}

	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MigrationsDir, err)
	}

	var steps []migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := parseUpFilename(entry.Name())
		if !ok {
			continue
		}
		body, err := fs.ReadFile(MigrationsFS, path.Join(MigrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		steps = append(steps, migration{version: version, name: name, sql: string(body)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

// parseUpFilename splits "20260815_100000_initial_schema.up.sql" into
// version "20260815_100000" and name "initial_schema".
func parseUpFilename(filename string) (version, name string, ok bool) {
	base, found := strings.CutSuffix(filename, ".up.sql")
	if !found {
		return "", "", false
	}
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0] + "_" + parts[1], parts[2], true
}
