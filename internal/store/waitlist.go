package store

import (
	"database/sql"
	"fmt"

	"github.com/garrethdev/coastal-elements/internal/model"
)

// WaitlistStore keeps a local mirror of waitlist signups. The CRM is the
// system of record; this log exists so signups survive CRM outages and can
// be reconciled later.
type WaitlistStore struct {
	db *sql.DB
}

func NewWaitlistStore(db *sql.DB) *WaitlistStore {
	return &WaitlistStore{db: db}
}

// Create records an email on the waitlist. Duplicate email+source pairs are
// silently ignored.
func (s *WaitlistStore) Create(email, source string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO waitlist (email, source) VALUES (?, ?)`,
		email, source,
	)
	if err != nil {
		return fmt.Errorf("insert waitlist: %w", err)
	}
	return nil
}

// List returns all waitlist entries ordered by creation time.
func (s *WaitlistStore) List() ([]model.WaitlistEntry, error) {
	rows, err := s.db.Query(`SELECT id, email, source, created_at FROM waitlist ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var entries []model.WaitlistEntry
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan waitlist: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of waitlist entries.
func (s *WaitlistStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM waitlist`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	return count, nil
}
