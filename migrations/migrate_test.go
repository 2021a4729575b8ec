// AngelaMos | 2026
// migrate_test.go

package migrations

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(".*").WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(".*").WillReturnError(errors.New("connection reset"))

	err = Migrate(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration error")
}

func TestMigrate_NilDB(t *testing.T) {
	err := Migrate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db is nil")
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(embedMigrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(embedMigrations, "00001_create_principals.sql")
	require.NoError(t, err)

	for _, want := range []string{
		"-- +goose Up",
		"-- +goose Down",
		"public_expires_at",
		"is_gold",
		"gold_expires_at",
		"ON DELETE CASCADE",
	} {
		assert.Contains(t, string(body), want)
	}
}
