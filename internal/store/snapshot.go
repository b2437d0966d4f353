package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SnapshotStore persists per-visitor auth snapshots: a small set of named
// values (token, user JSON, profile JSON) that survive restarts. It is the
// single writer for these keys; the session manager owns the contract that
// all keys for a visitor are written and cleared together.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Get returns the stored value for a visitor's key. The second return is
// false when no row exists.
func (s *SnapshotStore) Get(visitorID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM auth_snapshots WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get snapshot: %w", err)
	}
	return value, true, nil
}

// SetAll writes every given key for the visitor in a single transaction.
// Either all writes land or none do.
func (s *SnapshotStore) SetAll(visitorID string, values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		_, err := tx.Exec(
			`INSERT INTO auth_snapshots (visitor_id, key, value, updated_at)
			 VALUES (?, ?, ?, datetime('now'))
			 ON CONFLICT (visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			visitorID, key, value,
		)
		if err != nil {
			return fmt.Errorf("set snapshot %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// Set writes a single key for the visitor.
func (s *SnapshotStore) Set(visitorID, key, value string) error {
	return s.SetAll(visitorID, map[string]string{key: value})
}

// DeleteAll removes every snapshot for the visitor.
func (s *SnapshotStore) DeleteAll(visitorID string) error {
	_, err := s.db.Exec(`DELETE FROM auth_snapshots WHERE visitor_id = ?`, visitorID)
	if err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// DeleteStale removes snapshots not touched within maxAge and returns the
// number of rows removed.
func (s *SnapshotStore) DeleteStale(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")
	result, err := s.db.Exec(`DELETE FROM auth_snapshots WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale snapshots: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
