package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, Health(db))

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("tasks"))
	assert.True(t, db.Migrator().HasTable("task_logs"))

	// Migrations are idempotent
	assert.NoError(t, Migrate(db))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("oracle", "")
	assert.ErrorContains(t, err, "unsupported")
}

func TestMigrateNilDB(t *testing.T) {
	assert.Error(t, Migrate(nil))
	assert.Error(t, Health(nil))
	assert.NoError(t, Close(nil))
}
