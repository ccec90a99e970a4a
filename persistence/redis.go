package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStorage stores the record as a single JSON string key, so a session
// can be shared by several consoles on one workstation.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func init() {
	RegisterFactory("redis", newRedisStorage)
}

func newRedisStorage(dsn, profile string) (domain.SessionStorage, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: redis url: %w", err)
	}
	return NewRedisStorage(redis.NewClient(opts), "", profile, 0), nil
}

// NewRedisStorage creates a Redis-backed storage. A zero ttl keeps the key
// until it is deleted.
func NewRedisStorage(client *redis.Client, prefix, profile string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "medgas:session:"
	}
	return &RedisStorage{
		client: client,
		key:    prefix + profile,
		ttl:    ttl,
	}
}

func (s *RedisStorage) Load(ctx context.Context) (*domain.SessionRecord, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis session: load failed: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("redis session: decode failed: %w", err)
	}
	return &rec, nil
}

func (s *RedisStorage) Save(ctx context.Context, rec *domain.SessionRecord) error {
	row := *rec
	row.UpdatedAt = time.Now()
	b, err := json.Marshal(&row)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis session: save failed: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis session: delete failed: %w", err)
	}
	return nil
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
