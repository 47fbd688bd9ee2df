package kv

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func createTestDb(t *testing.T) *SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "vinylvault.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", dbPath, err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteGetMissing(t *testing.T) {
	s := createTestDb(t)

	value, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok || value != nil {
		t.Errorf("Get(missing) = %q, %v; want nil, false", value, ok)
	}
}

func TestSQLiteSetGetReplace(t *testing.T) {
	s := createTestDb(t)
	ctx := context.Background()

	if err := s.Set(ctx, "savedAlbums", []byte(`[]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, "savedAlbums", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Set (replace) error: %v", err)
	}

	value, ok, err := s.Get(ctx, "savedAlbums")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok {
		t.Fatalf("Get: key not found")
	}
	if string(value) != `[{"id":"a"}]` {
		t.Errorf("Get = %q, want replaced value", value)
	}
}

func TestSQLiteDelete(t *testing.T) {
	s := createTestDb(t)
	ctx := context.Background()

	if err := s.Set(ctx, "rating:a", []byte("4.5")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Delete(ctx, "rating:a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "rating:a"); ok {
		t.Errorf("key still present after Delete")
	}

	// Idempotency
	if err := s.Delete(ctx, "rating:a"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vinylvault.db")
	ctx := context.Background()

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Set(ctx, "albumLists", []byte("[]")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	s.Close()

	s, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get(ctx, "albumLists"); err != nil || !ok {
		t.Errorf("Get after reopen = %v, %v; want present", ok, err)
	}
}

func TestSQLiteSetRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := newSQLite(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT OR REPLACE INTO KeyValue (key, value) VALUES (?, ?)")).
		WithArgs("savedAlbums", []byte("[]")).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	if err := s.Set(context.Background(), "savedAlbums", []byte("[]")); err == nil {
		t.Fatalf("Set should have failed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteGetError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := newSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM KeyValue WHERE key = ?")).
		WithArgs("albumLists").
		WillReturnError(errors.New("database is locked"))

	if _, _, err := s.Get(context.Background(), "albumLists"); err == nil {
		t.Fatalf("Get should have failed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := []byte("abc")
	if err := m.Set(ctx, "k", in); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	in[0] = 'x'

	out, ok, _ := m.Get(ctx, "k")
	if !ok || string(out) != "abc" {
		t.Fatalf("Get = %q, %v; want abc, true", out, ok)
	}
	out[0] = 'y'

	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}
