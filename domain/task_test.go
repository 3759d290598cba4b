package domain

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestNewTaskStartsOpen(t *testing.T) {
	task := NewTask("t1", "Clean your office", "john@doe.com")

	if task.Status != StatusOpen {
		t.Fatalf("expected new task to be OPEN, got %s", task.Status)
	}
	if task.ID != "t1" || task.Title != "Clean your office" || task.Owner != "john@doe.com" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestTaskMarshalIncludesStatusAndOwner(t *testing.T) {
	task := NewTask("t1", "Title", "bob@builder.com")

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if !strings.Contains(string(payload), "\"status\":\"OPEN\"") {
		t.Fatalf("expected status field to be present, got %s", payload)
	}
	if !strings.Contains(string(payload), "\"owner\":\"bob@builder.com\"") {
		t.Fatalf("expected owner field to be present, got %s", payload)
	}
}

func TestTaskEquality(t *testing.T) {
	a := NewTask("t1", "Title", "bob@builder.com")
	b := NewTask("t1", "Title", "bob@builder.com")
	if a != b {
		t.Fatalf("expected identical tasks to compare equal")
	}

	b.Status = StatusClosed
	if a == b {
		t.Fatalf("expected tasks with different status to compare unequal")
	}
}
