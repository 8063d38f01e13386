// Package profilestore defines the profile persistence interface shared by
// the json, sqlite and memory backends.
package profilestore

import (
	"errors"
	"path/filepath"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/paths"
)

// ErrNotFound is returned by Load and Delete for unknown profile names.
var ErrNotFound = errors.New("profile not found")

// Store persists named monitor profiles.
type Store interface {
	Save(profile *output.Profile) error
	Load(name string) (*output.Profile, error)
	Delete(name string) error
	List() ([]string, error)
	LoadAll() ([]*output.Profile, error)
	Close() error
}

// SQLitePath returns the database file location for the sqlite backend.
func SQLitePath() (string, error) {
	dir, err := paths.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.db"), nil
}
