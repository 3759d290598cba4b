package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasks-api/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    owner  TEXT NOT NULL,
    id     TEXT NOT NULL,
    title  TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (owner, id)
)`

// Postgres stores tasks in a Postgres table with a composite
// (owner, id) primary key.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the given DSN and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tasks table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Add upserts the task at its (owner, id) key.
func (p *Postgres) Add(ctx context.Context, task domain.Task) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO tasks (owner, id, title, status) VALUES ($1, $2, $3, $4)
         ON CONFLICT (owner, id) DO UPDATE SET title = $3, status = $4`,
		task.Owner, task.ID, task.Title, string(task.Status))
	return err
}

// GetByID retrieves the task stored for the exact (owner, id) pair.
func (p *Postgres) GetByID(ctx context.Context, id, owner string) (domain.Task, error) {
	var task domain.Task
	var status string
	err := p.pool.QueryRow(ctx,
		`SELECT owner, id, title, status FROM tasks WHERE owner = $1 AND id = $2`,
		owner, id).Scan(&task.Owner, &task.ID, &task.Title, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	task.Status = domain.TaskStatus(status)
	return task, nil
}

// ListOpen retrieves all OPEN tasks for the provided owner.
func (p *Postgres) ListOpen(ctx context.Context, owner string) ([]domain.Task, error) {
	return p.listByStatus(ctx, owner, domain.StatusOpen)
}

// ListClosed retrieves all CLOSED tasks for the provided owner.
func (p *Postgres) ListClosed(ctx context.Context, owner string) ([]domain.Task, error) {
	return p.listByStatus(ctx, owner, domain.StatusClosed)
}

// Update replaces the stored row for the task's (owner, id) key.
func (p *Postgres) Update(ctx context.Context, task domain.Task) error {
	return p.Add(ctx, task)
}

func (p *Postgres) listByStatus(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT owner, id, title, status FROM tasks WHERE owner = $1 AND status = $2`,
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
