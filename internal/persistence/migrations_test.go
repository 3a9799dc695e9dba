package persistence

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/helpdesk?sslmode=disable", migrateURL("postgres://u:p@db:5432/helpdesk?sslmode=disable"))
	assert.Equal(t, "pgx5://db/helpdesk", migrateURL("postgresql://db/helpdesk"))
	assert.Equal(t, "pgx5://db/helpdesk", migrateURL("pgx5://db/helpdesk"))
}

func TestMigrationFilesArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
