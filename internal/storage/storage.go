// Package storage persists the few settings that must survive restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const panelMessageKey = "panel_message_id"

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to initialize settings table: %w", err)
	}
	return nil
}

// PanelMessageID returns the persisted control-message ID, or "" when
// none was captured yet.
func (s *Store) PanelMessageID() (string, error) {
	return s.get(panelMessageKey)
}

// SavePanelMessageID captures the control-message ID at panel
// (re)creation so the next start re-resolves it without config edits.
func (s *Store) SavePanelMessageID(id string) error {
	return s.set(panelMessageKey, id)
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Shutdown(ctx context.Context) error {
	return s.Close()
}

func (s *Store) Name() string {
	return "SettingsStore"
}
