// Package memory is an in-memory profile store used in tests.
package memory

import (
	"sort"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilestore"
)

type ProfileStore struct {
	profiles map[string]*output.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]*output.Profile)}
}

func (s *ProfileStore) Close() error { return nil }

func (s *ProfileStore) Save(profile *output.Profile) error {
	s.profiles[profile.Name] = profile.Clone()
	return nil
}

func (s *ProfileStore) Load(name string) (*output.Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return nil, profilestore.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *ProfileStore) Delete(name string) error {
	if _, ok := s.profiles[name]; !ok {
		return profilestore.ErrNotFound
	}
	delete(s.profiles, name)
	return nil
}

func (s *ProfileStore) List() ([]string, error) {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
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
		profiles = append(profiles, s.profiles[name].Clone())
	}
	return profiles, nil
}
