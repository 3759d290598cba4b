package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"tasks-api/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    owner  TEXT NOT NULL,
    id     TEXT NOT NULL,
    title  TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (owner, id)
)`

// SQLite stores tasks in a local SQLite database, mirroring the Postgres
// schema. Intended for single-process deployments and local development.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema
// exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tasks table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Add upserts the task at its (owner, id) key.
func (s *SQLite) Add(ctx context.Context, task domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (owner, id, title, status) VALUES (?, ?, ?, ?)
         ON CONFLICT (owner, id) DO UPDATE SET title = excluded.title, status = excluded.status`,
		task.Owner, task.ID, task.Title, string(task.Status))
	return err
}

// GetByID retrieves the task stored for the exact (owner, id) pair.
func (s *SQLite) GetByID(ctx context.Context, id, owner string) (domain.Task, error) {
	var task domain.Task
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT owner, id, title, status FROM tasks WHERE owner = ? AND id = ?`,
		owner, id).Scan(&task.Owner, &task.ID, &task.Title, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	task.Status = domain.TaskStatus(status)
	return task, nil
}

// ListOpen retrieves all OPEN tasks for the provided owner.
func (s *SQLite) ListOpen(ctx context.Context, owner string) ([]domain.Task, error) {
	return s.listByStatus(ctx, owner, domain.StatusOpen)
}

// ListClosed retrieves all CLOSED tasks for the provided owner.
func (s *SQLite) ListClosed(ctx context.Context, owner string) ([]domain.Task, error) {
	return s.listByStatus(ctx, owner, domain.StatusClosed)
}

// Update replaces the stored row for the task's (owner, id) key.
func (s *SQLite) Update(ctx context.Context, task domain.Task) error {
	return s.Add(ctx, task)
}

func (s *SQLite) listByStatus(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner, id, title, status FROM tasks WHERE owner = ? AND status = ?`,
		owner, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var task domain.Task
		var st string
		if err := rows.Scan(&task.Owner, &task.ID, &task.Title, &st); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatus(st)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
