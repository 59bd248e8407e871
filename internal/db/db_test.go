package db

import (
	"path/filepath"
	"testing"
)

func TestSQLiteInitDB(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer s.Close()

	// Schema must be idempotent.
	if err := s.InitDB(); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	if _, err := s.Exec(
		`INSERT INTO posts (id, slug, title, author_id) VALUES (?, ?, ?, ?)`,
		"p1", "hello", "Hello", "u1"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rows, err := s.Query(`SELECT id FROM posts WHERE slug = ?`, "hello")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !rows.Next() {
		rows.Close()
		t.Fatal("inserted row not found")
	}
	rows.Close()

	// slug uniqueness is enforced at the schema level
	if _, err := s.Exec(
		`INSERT INTO posts (id, slug, title, author_id) VALUES (?, ?, ?, ?)`,
		"p2", "hello", "Other", "u2"); err == nil {
		t.Error("duplicate slug insert succeeded, want constraint violation")
	}
}
