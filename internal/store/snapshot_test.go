package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/garrethdev/coastal-elements/internal/database"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSnapshotStore(testDB(t))

	if _, ok, err := s.Get("v1", "coastal_auth_token"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Set("v1", "coastal_auth_token", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("v1", "coastal_auth_token")
	if err != nil || !ok || got != "tok" {
		t.Fatalf("Get = %q ok=%v err=%v", got, ok, err)
	}

	// Overwrite replaces in place.
	if err := s.Set("v1", "coastal_auth_token", "tok2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _, _ = s.Get("v1", "coastal_auth_token")
	if got != "tok2" {
		t.Errorf("after overwrite = %q", got)
	}
}

func TestSnapshotSetAllIsAtomicPerVisitor(t *testing.T) {
	s := NewSnapshotStore(testDB(t))

	if err := s.SetAll("v1", map[string]string{
		"coastal_auth_token": "tok",
		"coastal_user":       `{"id":"u1"}`,
		"coastal_profile":    `{"id":"p1"}`,
	}); err != nil {
		t.Fatalf("SetAll: %v", err)
	}

	for key, want := range map[string]string{
		"coastal_auth_token": "tok",
		"coastal_user":       `{"id":"u1"}`,
		"coastal_profile":    `{"id":"p1"}`,
	} {
		got, ok, err := s.Get("v1", key)
		if err != nil || !ok || got != want {
			t.Errorf("key %s = %q ok=%v err=%v", key, got, ok, err)
		}
	}
}

func TestSnapshotVisitorsAreIsolated(t *testing.T) {
	s := NewSnapshotStore(testDB(t))

	if err := s.Set("v1", "coastal_auth_token", "tok-v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("v2", "coastal_auth_token", "tok-v2"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteAll("v1"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	if _, ok, _ := s.Get("v1", "coastal_auth_token"); ok {
		t.Error("v1 snapshot survived delete")
	}
	got, ok, _ := s.Get("v2", "coastal_auth_token")
	if !ok || got != "tok-v2" {
		t.Errorf("v2 snapshot affected by v1 delete: %q ok=%v", got, ok)
	}
}

func TestSnapshotDeleteStale(t *testing.T) {
	db := testDB(t)
	s := NewSnapshotStore(db)

	if err := s.Set("v1", "coastal_auth_token", "tok"); err != nil {
		t.Fatal(err)
	}
	// Backdate the row past the cutoff.
	if _, err := db.Exec(
		`UPDATE auth_snapshots SET updated_at = datetime('now', '-120 days') WHERE visitor_id = 'v1'`,
	); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("v2", "coastal_auth_token", "tok"); err != nil {
		t.Fatal(err)
	}

	removed, err := s.DeleteStale(90 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteStale: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok, _ := s.Get("v2", "coastal_auth_token"); !ok {
		t.Error("fresh snapshot removed")
	}
}
