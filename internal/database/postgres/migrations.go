package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migration is one embedded schema file; its filename is the version.
type migration struct {
	version string
	sql     string
}

// loadMigrations reads all .sql files of dir sorted by filename.
func loadMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: e.Name(), sql: string(content)})
	}
	slices.SortFunc(out, func(a, b migration) int { return strings.Compare(a.version, b.version) })
	return out, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`

// appliedVersions creates the bookkeeping table if needed and returns the
// recorded versions in order.
func (p *Pool) appliedVersions(ctx context.Context) ([]string, error) {
	if _, err := p.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return versions, nil
}

// pending returns the embedded migrations that have not been applied yet.
func (p *Pool) pending(ctx context.Context) ([]migration, error) {
	applied, err := p.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	all, err := loadMigrations(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, m := range all {
		if !slices.Contains(applied, m.version) {
			out = append(out, m)
		}
	}
	return out, nil
}

// apply runs one migration and records it in the same transaction.
func (p *Pool) apply(ctx context.Context, m migration) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("execute migration %s: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.version, err)
	}
	return nil
}

// Migrate applies all pending migrations in filename order and returns the
// versions it applied.
func (p *Pool) Migrate(ctx context.Context) ([]string, error) {
	todo, err := p.pending(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range todo {
		if err := p.apply(ctx, m); err != nil {
			return done, err
		}
		p.logger.Info("applied migration", zap.String("version", m.version))
		done = append(done, m.version)
	}
	return done, nil
}

// PendingMigrations lists versions that Migrate would apply.
func (p *Pool) PendingMigrations(ctx context.Context) ([]string, error) {
	todo, err := p.pending(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(todo))
	for i, m := range todo {
		versions[i] = m.version
	}
	return versions, nil
}

// MigrationsApplied returns the list of applied migrations
func (p *Pool) MigrationsApplied(ctx context.Context) ([]string, error) {
	return p.appliedVersions(ctx)
}
