// Package sqlite stores profiles as JSON blobs in a local SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilestore"
	"codeberg.org/lkiss/wlplug/pkg/profilestore/sqlite/migrations"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(filename string, log *zap.SugaredLogger) (*ProfileStore, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &ProfileStore{db: db}, nil
}

func (s *ProfileStore) Close() error {
	return s.db.Close()
}

func (s *ProfileStore) Save(profile *output.Profile) error {
	data, err := profile.Marshal()
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO profiles (name, data) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET data = excluded.data`,
		profile.Name, string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}
	return nil
}

func (s *ProfileStore) Load(name string) (*output.Profile, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM profiles WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profilestore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	profile, err := output.UnmarshalProfile([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	return profile, nil
}

func (s *ProfileStore) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return profilestore.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return names, nil
}

func (s *ProfileStore) LoadAll() ([]*output.Profile, error) {
	rows, err := s.db.Query(`SELECT name, data FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	defer rows.Close()

	var profiles []*output.Profile
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p, err := output.UnmarshalProfile([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("parse profile %q: %w", name, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return profiles, nil
}
