package domain

const (
	EventTaskCreated = "created"
	EventTaskClosed  = "closed"
)

// TaskEvent is the queue envelope published after a task changes state.
// Delivery is best effort; consumers must tolerate duplicates.
type TaskEvent struct {
	TaskID    string `json:"taskId"`
	Owner     string `json:"owner"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}
