package session

import (
	"context"

	"github.com/angelmondragon/pos-terminal/pkg/redis"
)

type redisClient interface {
	MSet(ctx context.Context, values map[string]string) error
	MGet(ctx context.Context, keys ...string) (map[string]string, error)
	TerminalKey(terminalID, name string) string
	Ping(ctx context.Context) error
}

var _ redisClient = (*redis.Client)(nil)

// RedisStore keeps a till's state under pos:terminal:<id>:<key>.
type RedisStore struct {
	client     redisClient
	terminalID string
}

func NewRedisStore(client redisClient, terminalID string) *RedisStore {
	return &RedisStore{client: client, terminalID: terminalID}
}

// Put writes all keys with a single MSET.
func (s *RedisStore) Put(ctx context.Context, values map[string]string) error {
	scoped := make(map[string]string, len(values))
	for key, value := range values {
		scoped[s.client.TerminalKey(s.terminalID, key)] = value
	}
	return s.client.MSet(ctx, scoped)
}

// Fetch reads all keys with a single MGET.
func (s *RedisStore) Fetch(ctx context.Context, keys ...string) (map[string]string, error) {
	scoped := make([]string, len(keys))
	for i, key := range keys {
		scoped[i] = s.client.TerminalKey(s.terminalID, key)
	}
	found, err := s.client.MGet(ctx, scoped...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(found))
	for i, key := range keys {
		if value, ok := found[scoped[i]]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
