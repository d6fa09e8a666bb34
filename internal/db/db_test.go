package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeshop/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "file:app.db?cache=shared&_foreign_keys=on", sqliteDSN("file:app.db?cache=shared"))
	assert.Equal(t, "app.db?_fk=1", sqliteDSN("app.db?_fk=1"))
}

func TestMigrateAndReset(t *testing.T) {
	gormDB, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))

	m := gormDB.Migrator()
	for _, table := range model.All() {
		assert.True(t, m.HasTable(table))
	}
	assert.True(t, m.HasTable("recipe_tags"))
	assert.True(t, m.HasTable("recipe_ingredients"))

	var fk int
	require.NoError(t, gormDB.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	Reset(gormDB)
	assert.False(t, m.HasTable(&model.User{}))
	assert.False(t, m.HasTable("recipe_tags"))

	require.NoError(t, Migrate(gormDB))
	assert.True(t, m.HasTable(&model.Recipe{}))
}
