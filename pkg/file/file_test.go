package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_JsonRoundTrip(t *testing.T) {
	fs := NewFileService()
	path := filepath.Join(t.TempDir(), "nested", "cases.json")

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.WriteJsonFile(path, map[string]int{"K": 3}))

	exists, err = fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	var out map[string]int
	require.NoError(t, fs.ReadJsonFile(path, &out))
	assert.Equal(t, map[string]int{"K": 3}, out)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileService_ReadYamlFile(t *testing.T) {
	fs := NewFileService()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: file\n"), 0600))

	var cfg struct {
		Store struct {
			Backend string `yaml:"backend"`
		} `yaml:"store"`
	}
	require.NoError(t, fs.ReadYamlFile(path, &cfg))
	assert.Equal(t, "file", cfg.Store.Backend)

	raw, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "backend")
}
