package database

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_add_index.sql": {Data: []byte("CREATE INDEX b;")},
		"m/001_init.sql":      {Data: []byte("CREATE TABLE a;")},
		"m/README.md":         {Data: []byte("ignored")},
	}

	migrations, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "001_init", migrations[0].Version)
	assert.Equal(t, "002_add_index", migrations[1].Version)
	assert.Equal(t, "CREATE TABLE a;", migrations[0].SQL)
}

func TestPendingSkipsApplied(t *testing.T) {
	all := []Migration{{Version: "001_init"}, {Version: "002_add_index"}}

	pending := Pending(all, map[string]bool{"001_init": true})
	require.Len(t, pending, 1)
	assert.Equal(t, "002_add_index", pending[0].Version)

	assert.Empty(t, Pending(all, map[string]bool{"001_init": true, "002_add_index": true}))
}

func TestEmbeddedSchemaCarriesUniqueConstraints(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	schema := migrations[0].SQL
	for _, table := range []string{"slave_accounts", "master_accounts", "membership_intents", "admin_logs"} {
		assert.True(t, strings.Contains(schema, table), "schema is missing %s", table)
	}
	assert.Contains(t, schema, "resource_handle")
}
