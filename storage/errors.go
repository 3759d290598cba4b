package storage

import "errors"

// ErrNotFound is returned by GetByID when no task exists for the requested
// (owner, id) pair. A task held by a different owner is indistinguishable
// from an absent one.
var ErrNotFound = errors.New("task not found")
