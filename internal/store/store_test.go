package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "settings.json"))
	settings, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "", settings.LastProfilePath)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := New(path)

	require.NoError(t, s.Save(&Settings{LastProfilePath: "profiles/meat_v1.json"}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "profiles/meat_v1.json", loaded.LastProfilePath)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := New(path)

	require.NoError(t, s.Save(&Settings{LastProfilePath: "a.json"}))
	require.NoError(t, s.Save(&Settings{LastProfilePath: "b.json"}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "b.json", loaded.LastProfilePath)
}
