package driver

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrymomot/cleanmedia/pkg/redis"
)

// Queue is a FIFO of attachment ids.
type Queue interface {
	Push(ctx context.Context, ids ...int64) error
	// Pop removes the next id. ok is false when the queue is empty.
	Pop(ctx context.Context) (id int64, ok bool, err error)
	Len(ctx context.Context) (int64, error)
}

// MemoryQueue is an in-process Queue.
type MemoryQueue struct {
	mu  sync.Mutex
	ids []int64
}

// NewMemoryQueue creates a queue holding ids.
func NewMemoryQueue(ids ...int64) *MemoryQueue {
	return &MemoryQueue{ids: append([]int64(nil), ids...)}
}

func (q *MemoryQueue) Push(_ context.Context, ids ...int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, ids...)
	return nil
}

func (q *MemoryQueue) Pop(_ context.Context) (int64, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return 0, false, nil
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.ids)), nil
}

// RedisQueue stores ids as decimal strings in a Redis list.
type RedisQueue struct {
	list *redis.List
}

// NewRedisQueue creates a queue on the list stored at key.
func NewRedisQueue(client redis.ListClient, key string) (*RedisQueue, error) {
	list, err := redis.NewList(client, key)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{list: list}, nil
}

func (q *RedisQueue) Push(ctx context.Context, ids ...int64) error {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = strconv.FormatInt(id, 10)
	}
	return q.list.Push(ctx, values...)
}

// Pop returns ErrInvalidQueueID for entries that are not ids; the entry is
// consumed so the queue does not stall on it.
func (q *RedisQueue) Pop(ctx context.Context) (int64, bool, error) {
	v, ok, err := q.list.Pop(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidQueueID, v)
	}
	return id, true, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.list.Len(ctx)
}

// Clear drops every queued id.
func (q *RedisQueue) Clear(ctx context.Context) error {
	return q.list.Clear(ctx)
}
