package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix is prepended to conversation ids to form Redis keys
const DefaultKeyPrefix = "inquiry:state:"

// RedisStore stores each conversation state as a JSON string
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key prefix
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithTTL expires idle conversations; zero keeps them forever
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a new Redis state store
func NewRedisStore(client *redis.Client, logger *zap.Logger, opts ...RedisOption) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(conversationID string) string {
	return s.keyPrefix + conversationID
}

// Save saves conversation state, refreshing its TTL
func (s *RedisStore) Save(ctx context.Context, st *domain.ConversationState) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	if err := validateID(st.ConversationID); err != nil {
		return err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.client.Set(ctx, s.key(st.ConversationID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Debug("conversation state saved",
		zap.String("conversation_id", st.ConversationID),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// Load loads conversation state
func (s *RedisStore) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	if err := validateID(conversationID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st domain.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &st, nil
}

// Delete deletes conversation state
func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if err := validateID(conversationID); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.key(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}

// Exists checks if state exists for a conversation
func (s *RedisStore) Exists(ctx context.Context, conversationID string) (bool, error) {
	if err := validateID(conversationID); err != nil {
		return false, err
	}

	result, err := s.client.Exists(ctx, s.key(conversationID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return result > 0, nil
}

// List returns all conversation ids that have stored state
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if id := strings.TrimPrefix(key, s.keyPrefix); id != "" && id != key {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return ids, nil
}
