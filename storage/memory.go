package storage

import (
	"context"
	"sync"

	"tasks-api/domain"
)

// taskKey addresses a task without string concatenation, so an owner
// containing any separator character cannot collide with another key.
type taskKey struct {
	owner string
	id    string
}

// Memory is an in-process task store guarded by a mutex. It backs local
// runs and tests; every store implementation honors the same contract.
type Memory struct {
	mu    sync.RWMutex
	tasks map[taskKey]domain.Task
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[taskKey]domain.Task)}
}

// Add stores the task under its (owner, id) key, overwriting silently.
func (m *Memory) Add(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskKey{owner: task.Owner, id: task.ID}] = task
	return nil
}

// GetByID returns the task stored for the exact (owner, id) pair.
func (m *Memory) GetByID(_ context.Context, id, owner string) (domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[taskKey{owner: owner, id: id}]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

// ListOpen returns the owner's OPEN tasks in no particular order.
func (m *Memory) ListOpen(_ context.Context, owner string) ([]domain.Task, error) {
	return m.listByStatus(owner, domain.StatusOpen), nil
}

// ListClosed returns the owner's CLOSED tasks in no particular order.
func (m *Memory) ListClosed(_ context.Context, owner string) ([]domain.Task, error) {
	return m.listByStatus(owner, domain.StatusClosed), nil
}

// Update replaces the stored task at its (owner, id) key.
func (m *Memory) Update(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskKey{owner: task.Owner, id: task.ID}] = task
	return nil
}

func (m *Memory) listByStatus(owner string, status domain.TaskStatus) []domain.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := []domain.Task{}
	for key, task := range m.tasks {
		if key.owner == owner && task.Status == status {
			tasks = append(tasks, task)
		}
	}
	return tasks
}
