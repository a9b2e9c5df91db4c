// Package dbtest opens a migrated SQLite database for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/blogpress/internal/database"
	"github.com/stretchr/testify/require"
)

// New returns a freshly migrated database living in t.TempDir().
// A file is used instead of :memory: so every pooled connection sees the same data.
func New(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
