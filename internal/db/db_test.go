package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestMigrateAndReset_SQLite(t *testing.T) {
	gormDB, err := Open("sqlite", "file:db_migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, Migrate(gormDB))
	for _, table := range models() {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}

	require.NoError(t, Reset(gormDB))
	assert.False(t, gormDB.Migrator().HasTable(&model.Order{}))
	assert.False(t, gormDB.Migrator().HasTable(&model.User{}))
}
