// Package storagetest поднимает файловую SQLite-базу с применённой схемой для тестов.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/migrations"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}

// NewSQLite открывает чистую базу во временной директории теста
func NewSQLite(t *testing.T) *dbmetrics.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "appointments.db")
	db, err := sql.Open(sqlbuilder.SQLite.DriverName(), sqlbuilder.SQLiteDSN(path))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Up(context.Background(), db, sqlbuilder.SQLite, nopLogger{})
	require.NoError(t, err)

	return dbmetrics.Wrap(db, nil)
}
