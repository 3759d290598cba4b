package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"tasks-api/domain"
)

// Storage persists tasks in an Azure table, one entity per task with
// PartitionKey = owner and RowKey = task id, and publishes task events to
// an Azure queue.
type Storage struct {
	taskTable  *aztables.Client
	eventQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, eventQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	tt := svc.NewClient(tasksTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, eventQueue: eq}, nil
}

type taskEntity struct {
	aztables.Entity
	Title  string `json:"Title"`
	Status string `json:"Status"`
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:     ent.RowKey,
		Title:  ent.Title,
		Status: domain.TaskStatus(ent.Status),
		Owner:  ent.PartitionKey,
	}, nil
}

func encodeTask(task domain.Task) ([]byte, error) {
	return json.Marshal(taskEntity{
		Entity: aztables.Entity{PartitionKey: task.Owner, RowKey: task.ID},
		Title:  task.Title,
		Status: string(task.Status),
	})
}

// statusFilter builds an OData filter for one owner and status. Single
// quotes in the owner are doubled so the value cannot break out of the
// quoted literal.
func statusFilter(owner string, status domain.TaskStatus) string {
	escaped := strings.ReplaceAll(owner, "'", "''")
	return "PartitionKey eq '" + escaped + "' and Status eq '" + string(status) + "'"
}

// Add stores the task, replacing any existing entity at the same key.
func (s *Storage) Add(ctx context.Context, task domain.Task) error {
	data, err := encodeTask(task)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	return err
}

// GetByID retrieves the task stored for the exact (owner, id) pair.
func (s *Storage) GetByID(ctx context.Context, id, owner string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, owner, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return decodeTaskEntity(resp.Value)
}

// ListOpen retrieves all OPEN tasks for the provided owner.
func (s *Storage) ListOpen(ctx context.Context, owner string) ([]domain.Task, error) {
	return s.listByStatus(ctx, owner, domain.StatusOpen)
}

// ListClosed retrieves all CLOSED tasks for the provided owner.
func (s *Storage) ListClosed(ctx context.Context, owner string) ([]domain.Task, error) {
	return s.listByStatus(ctx, owner, domain.StatusClosed)
}

// Update replaces the stored entity for the task's (owner, id) key.
func (s *Storage) Update(ctx context.Context, task domain.Task) error {
	return s.Add(ctx, task)
}

func (s *Storage) listByStatus(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, error) {
	filter := statusFilter(owner, status)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// PublishEvent sends a task event to the event queue.
func (s *Storage) PublishEvent(ctx context.Context, event domain.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
