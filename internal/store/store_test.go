package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countingMigration(version int, counter *int) Migration {
	return Migration{
		Version:     version,
		Description: "test migration",
		Up: func(tx *sql.Tx) error {
			*counter++
			_, err := tx.Exec("CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY)")
			return err
		},
	}
}

func TestMigrateAppliesOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var applied int
	migrations := []Migration{countingMigration(1, &applied)}

	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	// Re-running skips already applied versions.
	if err := s.Migrate(ctx, "test", migrations); err != nil {
		t.Fatalf("Migrate (second run): %v", err)
	}
	if applied != 1 {
		t.Errorf("applied after re-run = %d, want 1", applied)
	}
}

func TestMigrateComponentsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var a, b int
	if err := s.Migrate(ctx, "alpha", []Migration{countingMigration(1, &a)}); err != nil {
		t.Fatalf("Migrate alpha: %v", err)
	}
	if err := s.Migrate(ctx, "beta", []Migration{countingMigration(1, &b)}); err != nil {
		t.Fatalf("Migrate beta: %v", err)
	}

	// Same version number under a different component still runs.
	if a != 1 || b != 1 {
		t.Errorf("applied = %d/%d, want 1/1", a, b)
	}
}

func TestMigrateRollsBackFailedMigration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	bad := []Migration{{
		Version:     1,
		Description: "fails halfway",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE half (id INTEGER)"); err != nil {
				return err
			}
			return boom
		},
	}}

	if err := s.Migrate(ctx, "test", bad); !errors.Is(err, boom) {
		t.Fatalf("Migrate = %v, want wrapped boom", err)
	}

	// The table created before the failure must not survive.
	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='half'").Scan(&name)
	if err != sql.ErrNoRows {
		t.Errorf("table 'half' lookup = %v, want ErrNoRows", err)
	}

	// The failed version is not recorded as applied.
	var count int
	if err := s.DB().QueryRow(
		"SELECT COUNT(*) FROM _migrations WHERE component='test'").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Errorf("recorded migrations = %d, want 0", count)
	}
}

func TestTxCommitsAndRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')")
		return err
	})
	if err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	boom := errors.New("boom")
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv (k, v) VALUES ('b', '2')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx = %v, want boom", err)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM kv").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1 (rollback discarded the second insert)", count)
	}
}
