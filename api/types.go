package api

import (
	"context"

	"tasks-api/domain"
)

// TaskStore abstracts task persistence for handlers. All operations are
// scoped to one owner; implementations must never return another owner's
// tasks.
type TaskStore interface {
	Add(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, id, owner string) (domain.Task, error)
	ListOpen(ctx context.Context, owner string) ([]domain.Task, error)
	ListClosed(ctx context.Context, owner string) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) error
}

// Authenticator is implemented by types able to extract the owner identity
// from an Authorization header.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// EventSink receives task lifecycle events. Publishing is best effort;
// handlers never fail a request over a sink error.
type EventSink interface {
	PublishEvent(ctx context.Context, event domain.TaskEvent) error
}
