package domain

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// StatusOpen is the state every task starts in.
	StatusOpen TaskStatus = "OPEN"
	// StatusClosed is terminal; there is no reopen.
	StatusClosed TaskStatus = "CLOSED"
)

// Task represents a single tracked item. Tasks are addressed by the
// (Owner, ID) pair; the same ID under two different owners is two distinct
// tasks.
type Task struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
	Owner  string     `json:"owner"`
}

// NewTask constructs a task in the OPEN state.
func NewTask(id, title, owner string) Task {
	return Task{ID: id, Title: title, Status: StatusOpen, Owner: owner}
}
