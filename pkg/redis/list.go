package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ListClient is the subset of redis.UniversalClient used by List.
type ListClient interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// List is a FIFO list stored under a single Redis key.
// Values are pushed to the tail and popped from the head.
type List struct {
	db  ListClient
	key string
}

// NewList wraps the list stored at key.
func NewList(client ListClient, key string) (*List, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &List{db: client, key: key}, nil
}

// Key returns the Redis key of the list.
func (l *List) Key() string {
	return l.key
}

// Push appends values to the tail. Pushing nothing is a no-op.
func (l *List) Push(ctx context.Context, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := l.db.RPush(ctx, l.key, args...).Err(); err != nil {
		return errors.Join(ErrListOperationFailed, err)
	}
	return nil
}

// Pop removes and returns the head. ok is false when the list is empty
// (redis.Nil is not an error).
func (l *List) Pop(ctx context.Context) (string, bool, error) {
	val, err := l.db.LPop(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrListOperationFailed, err)
	}
	return val, true, nil
}

// Len returns the number of values in the list.
func (l *List) Len(ctx context.Context) (int64, error) {
	n, err := l.db.LLen(ctx, l.key).Result()
	if err != nil {
		return 0, errors.Join(ErrListOperationFailed, err)
	}
	return n, nil
}

// Clear deletes the list.
func (l *List) Clear(ctx context.Context) error {
	if err := l.db.Del(ctx, l.key).Err(); err != nil {
		return errors.Join(ErrListOperationFailed, err)
	}
	return nil
}
