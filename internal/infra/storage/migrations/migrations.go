// Package migrations применяет встроенные SQL-миграции схемы.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

var (
	// ErrReadMigrations не удалось прочитать встроенные файлы миграций
	ErrReadMigrations = errors.New("migrations: failed to read migration files")
	// ErrApplyMigration не удалось применить миграцию
	ErrApplyMigration = errors.New("migrations: failed to apply migration")
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}

// Migration одна миграция схемы
type Migration struct {
	Version string
	SQL     string
}

// List возвращает миграции диалекта в порядке применения
func List(dialect sqlbuilder.Dialect) ([]Migration, error) {
	dir := string(dialect)
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadMigrations, err)
	}

	out := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := files.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadMigrations, e.Name(), err)
		}
		out = append(out, Migration{
			Version: strings.TrimSuffix(e.Name(), ".sql"),
			SQL:     string(body),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Up применяет ещё не применённые миграции. Возвращает число применённых.
func Up(ctx context.Context, db *sql.DB, dialect sqlbuilder.Dialect, logger Logger) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(64) PRIMARY KEY,
    applied_at VARCHAR(64) NOT NULL
)`); err != nil {
		return 0, fmt.Errorf("%w: create schema_migrations: %v", ErrApplyMigration, err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	migrations, err := List(dialect)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := apply(ctx, db, dialect, m); err != nil {
			return count, err
		}
		logger.Info("Migrations: applied %s", m.Version)
		count++
	}
	return count, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: read schema_migrations: %v", ErrApplyMigration, err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan version: %v", ErrApplyMigration, err)
		}
		out[v] = struct{}{}
	}
	return out, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, dialect sqlbuilder.Dialect, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: begin: %v", ErrApplyMigration, m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrApplyMigration, m.Version, err)
		}
	}

	query, args, err := dialect.Insert("schema_migrations").
		Columns("version", "applied_at").
		Values(m.Version, time.Now().UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s: build insert: %v", ErrApplyMigration, m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s: record version: %v", ErrApplyMigration, m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: commit: %v", ErrApplyMigration, m.Version, err)
	}
	return nil
}

// splitStatements делит файл на отдельные операторы по ";" в конце строки
func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";\n") {
		stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
