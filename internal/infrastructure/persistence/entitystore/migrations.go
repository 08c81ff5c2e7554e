package entitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hata-go/hata/internal/infrastructure/persistence/sqlasync"
)

// ErrMigrationFailed indicates a migration failure.
var ErrMigrationFailed = errors.New("entitystore: migration failed")

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// The schema sticks to types and clauses both sqlite and postgres accept.
// Timestamps are unix milliseconds.
const migration001Up = `
CREATE TABLE IF NOT EXISTS entities (
    kind VARCHAR(32) NOT NULL,
    id VARCHAR(20) NOT NULL,
    data TEXT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS idx_entities_kind_updated ON entities(kind, updated_at DESC);
`

const migration001Down = `
DROP INDEX IF EXISTS idx_entities_kind_updated;
DROP TABLE IF EXISTS entities;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ENTITY CHANGES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS entity_changes (
    kind VARCHAR(32) NOT NULL,
    id VARCHAR(20) NOT NULL,
    changed_at BIGINT NOT NULL,
    old_values TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entity_changes_entity ON entity_changes(kind, id, changed_at);
`

const migration002Down = `
DROP INDEX IF EXISTS idx_entity_changes_entity;
DROP TABLE IF EXISTS entity_changes;
`

// Migrations returns the built-in migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_entities",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_entity_changes",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies versioned migrations and records them in
// schema_migrations.
type Migrator struct {
	engine     *sqlasync.Engine
	migrations []Migration
	tableName  string
	now        func() time.Time
}

// NewMigrator creates a migrator with the built-in migrations.
func NewMigrator(engine *sqlasync.Engine) *Migrator {
	return NewMigratorWithMigrations(engine, Migrations())
}

// NewMigratorWithMigrations creates a migrator with custom migrations.
func NewMigratorWithMigrations(engine *sqlasync.Engine, migrations []Migration) *Migrator {
	return &Migrator{
		engine:     engine,
		migrations: migrations,
		tableName:  "schema_migrations",
		now:        time.Now,
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at BIGINT NOT NULL
		)
	`, m.tableName)

	if _, err := m.engine.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the applied versions and when they ran.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.engine.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	all, err := rows.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration rows: %w", err)
	}

	applied := make(map[int]time.Time, len(all))
	for _, row := range all {
		version, ok := asInt64(row.Values[0])
		if !ok {
			return nil, fmt.Errorf("unexpected migration version %v", row.Values[0])
		}
		at, _ := asInt64(row.Values[1])
		applied[int(version)] = time.UnixMilli(at).UTC()
	}
	return applied, nil
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if strings.TrimSpace(mig.UpSQL) == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		insertQuery := m.engine.Rebind(fmt.Sprintf(
			"INSERT INTO %s (version, name, applied_at) VALUES (?, ?, ?)",
			m.tableName,
		))
		appliedAt := m.now().UnixMilli()
		err := m.engine.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range statements(mig.UpSQL) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
				}
			}
			_, err := tx.ExecContext(ctx, insertQuery, mig.Version, mig.Name, appliedAt)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// Rollback rolls back the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	var lastVersion int
	for v := range applied {
		if v > lastVersion {
			lastVersion = v
		}
	}

	if lastVersion == 0 {
		return nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == lastVersion {
			migration = &m.migrations[i]
			break
		}
	}

	if migration == nil || strings.TrimSpace(migration.DownSQL) == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, lastVersion)
	}

	deleteQuery := m.engine.Rebind(fmt.Sprintf("DELETE FROM %s WHERE version = ?", m.tableName))
	return m.engine.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range statements(migration.DownSQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", lastVersion, err)
			}
		}
		_, err := tx.ExecContext(ctx, deleteQuery, lastVersion)
		return err
	})
}

// Status returns every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)

	for i := range result {
		if appliedAt, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = appliedAt
		}
	}

	return result, nil
}

// statements splits a migration script on semicolons. Migration scripts
// must not contain semicolons inside literals.
func statements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
