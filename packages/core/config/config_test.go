package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 3000, c.Port)
	assert.False(t, c.GetWatch())
	assert.True(t, c.IsDefault())

	var empty Config
	assert.False(t, empty.GetVerbose())
	assert.False(t, empty.IsDefault())
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, c.IsDefault())

	content := `{"port": 8080, "routes": "routes.yaml", "delay": 250, "watch": true, "metadata": {"APP_ENV": "test"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitfakerc"), []byte(content), 0644))

	c, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "routes.yaml", c.Routes)
	assert.Equal(t, 250*time.Millisecond, c.DelayDuration())
	assert.True(t, c.GetWatch())
	assert.Equal(t, 1, c.Burst, "unset fields keep their defaults")
	assert.Equal(t, map[string]any{"APP_ENV": "test"}, c.Metadata)
}

func TestFindAndLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hitfake.config.json"), []byte(`{"port": 2}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitfake.config.json"), []byte(`{"port": 1}`), 0644))

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Metadata = map[string]any{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		Port:      9000,
		RateLimit: 2.5,
		NoColor:   BoolPtr(true),
		Metadata:  map[string]any{"B": "2"},
	})

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, 2.5, merged.RateLimit)
	assert.True(t, merged.GetNoColor())
	assert.False(t, merged.GetVerbose())
	assert.Equal(t, map[string]any{"A": "1", "B": "2"}, merged.Metadata)
	assert.Equal(t, map[string]any{"A": "1", "B": "1"}, base.Metadata, "merge does not modify the receiver")
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	c := DefaultConfig()
	c.Routes = "api.yaml"
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
