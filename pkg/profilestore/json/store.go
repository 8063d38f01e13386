// Package json stores each profile as a pretty-printed file in the XDG
// profiles directory, so users can edit layouts by hand.
package json

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilestore"
)

type ProfileStore struct {
	dir string
}

func NewProfileStore(dir string) (*ProfileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &ProfileStore{dir: dir}, nil
}

func (s *ProfileStore) Close() error { return nil }

// fileName maps a profile name to a filesystem-safe path inside the store.
func (s *ProfileStore) fileName(name string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return filepath.Join(s.dir, safe+".json")
}

func (s *ProfileStore) Save(profile *output.Profile) error {
	data, err := profile.Marshal()
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(s.fileName(profile.Name), data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) Load(name string) (*output.Profile, error) {
	data, err := os.ReadFile(s.fileName(name))
	if os.IsNotExist(err) {
		return nil, profilestore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	profile, err := output.UnmarshalProfile(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	return profile, nil
}

func (s *ProfileStore) Delete(name string) error {
	err := os.Remove(s.fileName(name))
	if os.IsNotExist(err) {
		return profilestore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *ProfileStore) LoadAll() ([]*output.Profile, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	profiles := make([]*output.Profile, 0, len(names))
	for _, name := range names {
		p, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
