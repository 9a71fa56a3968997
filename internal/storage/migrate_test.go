package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sandeepkv93/todo/internal/model"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := MigrateUp(ctx, db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(ctx, db); err != nil {
		t.Fatalf("repeated migrate up failed: %v", err)
	}
	if err := MigrateDown(ctx, db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if err := MigrateUp(ctx, db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	id, err := store.Insert(ctx, model.Task{Title: "Roundtrip task", Description: "migration compatibility", DueDate: 20000})
	if err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}

	tasks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list after roundtrip failed: %v", err)
	}
	got, ok := model.Find(tasks, id)
	if !ok || got.Title != "Roundtrip task" {
		t.Fatalf("unexpected task after roundtrip: %#v", tasks)
	}
}

func TestMigrateDownDropsTaskTable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate-down.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := MigrateUp(ctx, db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := MigrateDown(ctx, db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}

	var n int
	row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'Task'`)
	if err := row.Scan(&n); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected Task table to be dropped, found %d", n)
	}
}
