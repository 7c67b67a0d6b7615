package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsPopulatesSymbols(t *testing.T) {
	cfg := Defaults()
	assert.NotEmpty(t, cfg.Symbols.FiledirStr)
	assert.NotEmpty(t, cfg.Symbols.DeviceChar)
	assert.NotEmpty(t, cfg.Mount.BaseDir)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Symbols.FiledirStr, cfg.Symbols.FiledirStr)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "[symbols]\nfiledir_str = \"ALL\"\n\n[mount]\nbase_dir = \"/custom\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ALL", cfg.Symbols.FiledirStr)
	assert.Equal(t, "/custom", cfg.Mount.BaseDir)
	// Unset keys still receive their defaults from the overlay.
	assert.Equal(t, Defaults().Symbols.DeviceChar, cfg.Symbols.DeviceChar)
}

func TestConfigRootAndCollectionDB(t *testing.T) {
	root := ConfigRoot()
	assert.NotEmpty(t, root)
	db := CollectionDB(root, "photos")
	assert.Contains(t, db, "photos")
	assert.Contains(t, db, "db.sqlite3")
}
