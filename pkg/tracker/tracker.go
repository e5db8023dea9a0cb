// Package tracker persists the set of profiles the web service keeps
// refreshed, backed by SQLite.
package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotTracked is returned when a profile is not in the store
var ErrNotTracked = errors.New("profile not tracked")

// TrackedProfile is one profile under periodic refresh
type TrackedProfile struct {
	Username      string    `json:"username"`
	ProfileURN    string    `json:"profile_urn,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	AddedAt       time.Time `json:"added_at"`
	LastRefreshed time.Time `json:"last_refreshed,omitempty"`
	PostCount     int       `json:"post_count"`
}

// Store handles tracked profile persistence
type Store struct {
	db *sql.DB
}

// New opens (or creates) the tracker database at dbPath
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// modernc sqlite does not support concurrent writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracked_profiles (
		username TEXT PRIMARY KEY,
		profile_urn TEXT,
		display_name TEXT,
		added_at DATETIME NOT NULL,
		last_refreshed DATETIME,
		post_count INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert adds a profile or updates its URN and display name
func (s *Store) Upsert(p *TrackedProfile) error {
	if p.Username == "" {
		return fmt.Errorf("username is required")
	}
	addedAt := p.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO tracked_profiles (username, profile_urn, display_name, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			profile_urn = CASE WHEN excluded.profile_urn != '' THEN excluded.profile_urn ELSE profile_urn END,
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE display_name END
	`, p.Username, p.ProfileURN, p.DisplayName, addedAt)
	return err
}

// Get returns a single tracked profile
func (s *Store) Get(username string) (*TrackedProfile, error) {
	row := s.db.QueryRow(`
		SELECT username, profile_urn, display_name, added_at, last_refreshed, post_count
		FROM tracked_profiles WHERE username = ?
	`, username)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotTracked
	}
	return p, err
}

// List returns all tracked profiles ordered by when they were added
func (s *Store) List() ([]*TrackedProfile, error) {
	rows, err := s.db.Query(`
		SELECT username, profile_urn, display_name, added_at, last_refreshed, post_count
		FROM tracked_profiles ORDER BY added_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*TrackedProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Remove deletes a profile from the store
func (s *Store) Remove(username string) error {
	res, err := s.db.Exec(`DELETE FROM tracked_profiles WHERE username = ?`, username)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotTracked
	}
	return nil
}

// MarkRefreshed records when a profile's feed was last collected and
// how many posts the run retained
func (s *Store) MarkRefreshed(username string, at time.Time, postCount int) error {
	res, err := s.db.Exec(`
		UPDATE tracked_profiles SET last_refreshed = ?, post_count = ? WHERE username = ?
	`, at.UTC(), postCount, username)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotTracked
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*TrackedProfile, error) {
	var p TrackedProfile
	var urn, name sql.NullString
	var refreshed sql.NullTime
	if err := row.Scan(&p.Username, &urn, &name, &p.AddedAt, &refreshed, &p.PostCount); err != nil {
		return nil, err
	}
	p.ProfileURN = urn.String
	p.DisplayName = name.String
	if refreshed.Valid {
		p.LastRefreshed = refreshed.Time
	}
	return &p, nil
}
