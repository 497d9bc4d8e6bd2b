package db

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"010_payout_index.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":         {Data: []byte("SELECT 1;")},
		"README.md":            {Data: []byte("docs")},
		"archive/000_old.sql":  {Data: []byte("SELECT 1;")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "010_payout_index.sql"}, names)
}

func TestMigrationFiles_RepositoryMigrations(t *testing.T) {
	names, err := migrationFiles(os.DirFS("../../migrations"))
	require.NoError(t, err)
	assert.Contains(t, names, "001_init.sql")
}
