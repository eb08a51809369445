package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meetingagent/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "agent:sess:"

// RedisStore keeps sessions as JSON in Redis with a TTL, for deployments
// where the chat API runs on more than one process.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", id, err)
	}
	return s.client.Set(ctx, sessionKeyPrefix+id, b, s.ttl).Err()
}
