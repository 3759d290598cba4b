package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tasks-api/domain"
)

type backend interface {
	Add(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, id, owner string) (domain.Task, error)
	ListOpen(ctx context.Context, owner string) ([]domain.Task, error)
	ListClosed(ctx context.Context, owner string) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) error
}

// Cache wraps a task store with Redis-backed caching for the per-owner
// list reads. Point reads go straight to the backing store; writes evict
// the owner's cached lists.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching store wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// Add stores the task and evicts the owner's cached lists.
func (c *Cache) Add(ctx context.Context, task domain.Task) error {
	if err := c.base.Add(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.Owner)
	return nil
}

// GetByID always reads through to the backing store.
func (c *Cache) GetByID(ctx context.Context, id, owner string) (domain.Task, error) {
	return c.base.GetByID(ctx, id, owner)
}

// ListOpen returns the owner's OPEN tasks, from cache when possible.
func (c *Cache) ListOpen(ctx context.Context, owner string) ([]domain.Task, error) {
	return c.list(ctx, owner, domain.StatusOpen, c.base.ListOpen)
}

// ListClosed returns the owner's CLOSED tasks, from cache when possible.
func (c *Cache) ListClosed(ctx context.Context, owner string) ([]domain.Task, error) {
	return c.list(ctx, owner, domain.StatusClosed, c.base.ListClosed)
}

// Update replaces the stored task and evicts the owner's cached lists.
func (c *Cache) Update(ctx context.Context, task domain.Task) error {
	if err := c.base.Update(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.Owner)
	return nil
}

func (c *Cache) list(ctx context.Context, owner string, status domain.TaskStatus, fetch func(context.Context, string) ([]domain.Task, error)) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, owner, status); ok {
		return tasks, nil
	}

	tasks, err := fetch(ctx, owner)
	if err != nil {
		return nil, err
	}

	c.store(ctx, owner, status, tasks)
	return tasks, nil
}

func (c *Cache) loadFromCache(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, listCacheKey(owner, status)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, listCacheKey(owner, status)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, listCacheKey(owner, status)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, owner string, status domain.TaskStatus, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, listCacheKey(owner, status), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx,
		listCacheKey(owner, domain.StatusOpen),
		listCacheKey(owner, domain.StatusClosed),
	).Result()
}

func listCacheKey(owner string, status domain.TaskStatus) string {
	return "tasks:" + string(status) + ":" + owner
}
