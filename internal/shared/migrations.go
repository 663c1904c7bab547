package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration represents a database migration with up and down SQL.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Migration
	Applied bool
}

// Migrator applies versioned migrations read from a filesystem of "NNNN_name_up.sql" / "NNNN_name_down.sql" pairs.
type Migrator struct {
	db  *sql.DB
	src fs.FS
	dir string
}

// NewMigrator creates a [Migrator] over the embedded schema.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, src: migrationFiles, dir: "sql"}
}

// NewMigratorFS creates a [Migrator] reading migrations from dir within src.
func NewMigratorFS(db *sql.DB, src fs.FS, dir string) *Migrator {
	return &Migrator{db: db, src: src, dir: dir}
}

// RunMigrations executes all pending embedded migrations on the database.
func RunMigrations(db *sql.DB) error {
	return NewMigrator(db).Up()
}

// RollbackMigration rolls back the most recent embedded migration.
func RollbackMigration(db *sql.DB) error {
	return NewMigrator(db).Down()
}

func loadMigrations() ([]Migration, error) {
	return NewMigratorFS(nil, migrationFiles, "sql").load()
}

// load reads all migration files and returns them sorted by version.
func (m *Migrator) load() ([]Migration, error) {
	entries, err := fs.ReadDir(m.src, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		// "0001_create_kv_up.sql" -> version 1, name "create_kv"
		version, rest, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(version)
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(m.src, path.Join(m.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		mig := byVersion[v]
		if mig == nil {
			mig = &Migration{Version: v}
			byVersion[v] = mig
		}

		switch {
		case strings.HasSuffix(rest, "_up.sql"):
			mig.Name = strings.TrimSuffix(rest, "_up.sql")
			mig.Up = string(content)
		case strings.HasSuffix(rest, "_down.sql"):
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", mig.Version)
		}
		migrations = append(migrations, *mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Up applies every migration that has not been recorded in schema_migrations.
func (m *Migrator) Up() error {
	migrations, err := m.load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := m.ensureTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.applied()
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.exec(mig.Up, "INSERT INTO schema_migrations (version) VALUES (?)", mig.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
	}
	return nil
}

// Down rolls back the highest applied migration.
func (m *Migrator) Down() error {
	migrations, err := m.load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := m.ensureTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current sql.NullInt64
	if err := m.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if !current.Valid {
		return fmt.Errorf("no migrations to rollback")
	}

	for _, mig := range migrations {
		if mig.Version == int(current.Int64) {
			if err := m.exec(mig.Down, "DELETE FROM schema_migrations WHERE version = ?", mig.Version); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
			}
			return nil
		}
	}
	return fmt.Errorf("migration version %d not found", current.Int64)
}

// Status lists every known migration with its applied state.
func (m *Migrator) Status() ([]MigrationStatus, error) {
	migrations, err := m.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := m.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.applied()
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(migrations))
	for i, mig := range migrations {
		out[i] = MigrationStatus{Migration: mig, Applied: applied[mig.Version]}
	}
	return out, nil
}

func (m *Migrator) ensureTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *Migrator) applied() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// exec runs each statement of script and the bookkeeping statement in one transaction.
func (m *Migrator) exec(script, record string, version int) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(removeComments(stmt))
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// removeComments strips "--" line comments from a statement.
func removeComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
