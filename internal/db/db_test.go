package db

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":    {Data: []byte("CREATE INDEX x ON t (a);")},
		"001_query_audit.sql":  {Data: []byte("CREATE TABLE t (a int);")},
		"nested/002_more.sql":  {Data: []byte("SELECT 1;")},
		"README.md":            {Data: []byte("docs")},
		"notes.sql":            {Data: []byte("-- no prefix")},
		"abc_not_a_number.sql": {Data: []byte("-- bad prefix")},
	}
	migrations, err := ReadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, Migration{Number: 1, Name: "query_audit", SQL: "CREATE TABLE t (a int);"}, migrations[0])
	assert.Equal(t, 2, migrations[1].Number)
	assert.Equal(t, "more", migrations[1].Name)
	assert.Equal(t, 10, migrations[2].Number)
	assert.Equal(t, "add_index", migrations[2].Name)
}

func TestReadMigrations_RepoDir(t *testing.T) {
	migrations, err := ReadMigrations(os.DirFS("../../migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Number)
	assert.Contains(t, migrations[0].SQL, "query_dispatches")
}

func TestNew_RequiresConnectionString(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestWithSSLDisabled(t *testing.T) {
	assert.Equal(t, "postgres://h/db?sslmode=disable", withSSLDisabled("postgres://h/db"))
	assert.Equal(t, "postgres://h/db?x=1&sslmode=disable", withSSLDisabled("postgres://h/db?x=1"))
}
