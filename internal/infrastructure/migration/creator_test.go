package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Add deposit column": "add_deposit_column",
		"add--archive_key":   "add_archive_key",
		"  trailing  ":       "trailing",
		"Índice único":       "ndice_nico",
		"!!!":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestCreateAndListMigrations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "postgres")
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	mf, err := CreateMigration(dir, "Add error kind index", now)
	require.NoError(t, err)
	assert.Equal(t, "20260314123000", mf.Version)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)

	_, err = CreateMigration(dir, "Create ledger", now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260314113000_create_ledger", "20260314123000_add_error_kind_index"}, names)

	_, err = CreateMigration(dir, "???", now)
	assert.Error(t, err)
}

func TestListMigrations_MissingDir(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSourceDir(t *testing.T) {
	assert.Equal(t, filepath.Join("migrations", "postgres"), SourceDir("migrations", ""))
	assert.Equal(t, filepath.Join("migrations", "mysql"), SourceDir("migrations", "mysql"))
}

func TestShippedMigrationsArePaired(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		dir := SourceDir(filepath.Join("..", "..", "..", "migrations"), driver)
		names, err := ListMigrations(dir)
		require.NoError(t, err)
		require.NotEmpty(t, names, driver)
		for _, n := range names {
			assert.FileExists(t, filepath.Join(dir, n+".down.sql"))
		}
	}
}
