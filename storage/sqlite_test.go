package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tasks-api/domain"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteAddedTaskRetrievedByID(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	task := domain.NewTask("t1", "Clean your office", "john@doe.com")

	if err := store.Add(ctx, task); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := store.GetByID(ctx, task.ID, task.Owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != task {
		t.Fatalf("expected %+v, got %+v", task, got)
	}
}

func TestSQLiteGetByIDMissing(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.GetByID(context.Background(), "no-such-id", "john@doe.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteCloseMovesTaskBetweenLists(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	task := domain.NewTask("t1", "Clean your office", "john@doe.com")

	if err := store.Add(ctx, task); err != nil {
		t.Fatalf("add: %v", err)
	}

	task.Status = domain.StatusClosed
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	open, err := store.ListOpen(ctx, task.Owner)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	assertTaskSet(t, open)

	closed, err := store.ListClosed(ctx, task.Owner)
	if err != nil {
		t.Fatalf("list closed: %v", err)
	}
	assertTaskSet(t, closed, task)
}

func TestSQLiteCrossTenantIsolation(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	forA := domain.NewTask("shared-id", "A's task", "a@example.com")
	forB := domain.NewTask("shared-id", "B's task", "b@example.com")

	if err := store.Add(ctx, forA); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, forB); err != nil {
		t.Fatalf("add: %v", err)
	}

	gotA, err := store.GetByID(ctx, "shared-id", "a@example.com")
	if err != nil {
		t.Fatalf("get A: %v", err)
	}
	if gotA != forA {
		t.Fatalf("expected %+v, got %+v", forA, gotA)
	}

	openB, err := store.ListOpen(ctx, "b@example.com")
	if err != nil {
		t.Fatalf("list open B: %v", err)
	}
	assertTaskSet(t, openB, forB)
}

func TestSQLiteAddOverwritesSilently(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	task := domain.NewTask("t1", "First title", "john@doe.com")

	if err := store.Add(ctx, task); err != nil {
		t.Fatalf("add: %v", err)
	}
	task.Title = "Second title"
	if err := store.Add(ctx, task); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	got, err := store.GetByID(ctx, task.ID, task.Owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Second title" {
		t.Fatalf("expected overwrite, got %+v", got)
	}
}
