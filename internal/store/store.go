// Package store remembers small bits of collector state between
// invocations, currently just the last used profile path.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type Store struct {
	path string
}

// Settings is the persisted collector state.
type Settings struct {
	LastProfilePath string `json:"last_profile_path"`
}

func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath places the settings file under the user's config directory,
// falling back to the working directory when none is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "enose-collector.json"
	}
	return filepath.Join(dir, "enose-collector", "settings.json")
}

// Load returns the saved settings. A missing file is not an error; zero
// settings come back.
func (s *Store) Load() (*Settings, error) {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var settings Settings
	if err := json.NewDecoder(file).Decode(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save writes the settings atomically via a temp file rename.
func (s *Store) Save(settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(settings); err != nil {
		file.Close()
		return err
	}
	file.Sync()
	file.Close()

	return os.Rename(tmpPath, s.path)
}
