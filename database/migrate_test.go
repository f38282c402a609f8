package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(embedMigrations, migrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for _, e := range entries {
		body, err := fs.ReadFile(embedMigrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}
	assert.True(t, strings.HasPrefix(entries[0].Name(), "00001_"))
}
