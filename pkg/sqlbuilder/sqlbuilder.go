package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect SQL-диалект хранилища
type Dialect string

const (
	// Postgres основное хранилище (lib/pq)
	Postgres Dialect = "postgres"
	// SQLite встраиваемое хранилище (modernc.org/sqlite), для локального запуска и тестов
	SQLite Dialect = "sqlite"
)

// ParseDialect разбирает имя драйвера из конфигурации
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("sqlbuilder: unsupported dialect %q", s)
	}
}

// DriverName имя драйвера для sql.Open
func (d Dialect) DriverName() string {
	return string(d)
}

// SQLiteDSN строка подключения к файлу SQLite.
// _time_format=sqlite нужен, чтобы time.Time записывался в формате,
// который читает types.NullTimestamp.
func SQLiteDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate&_time_format=sqlite",
		path,
	)
}

// Builder возвращает squirrel-построитель с плейсхолдерами диалекта
func (d Dialect) Builder() squirrel.StatementBuilderType {
	if d == Postgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// SupportsRowLocks поддерживает ли диалект SELECT ... FOR UPDATE и advisory-блокировки
func (d Dialect) SupportsRowLocks() bool {
	return d == Postgres
}

// Select начинает SELECT-запрос
func (d Dialect) Select(columns ...string) squirrel.SelectBuilder {
	return d.Builder().Select(columns...)
}

// Insert начинает INSERT-запрос
func (d Dialect) Insert(table string) squirrel.InsertBuilder {
	return d.Builder().Insert(table)
}

// Update начинает UPDATE-запрос
func (d Dialect) Update(table string) squirrel.UpdateBuilder {
	return d.Builder().Update(table)
}

// Delete начинает DELETE-запрос
func (d Dialect) Delete(table string) squirrel.DeleteBuilder {
	return d.Builder().Delete(table)
}
