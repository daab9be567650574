// Package redis provides Redis-backed adapters for transcript persistence
// and distributed locking, suitable for serving prompts from multiple
// replicas that share one conversation state.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "espalier:transcript:"

// Sessions without a TTL get a far-future expiry score in the index so the
// lazy cleanup in List never evicts them.
const noExpiry = 4102444800 // 2100-01-01

// Store implements ports.TranscriptStore on Redis. Each session is a list
// of JSON-encoded messages under <prefix><sessionID>, plus one sorted set
// (<prefix>index) mapping session IDs to their expiry time.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets an expiration on sessions. Every Append refreshes it, so a
// session only expires after ttl of inactivity. Zero (the default) keeps
// sessions forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix (default "espalier:transcript:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Store with its own Redis client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Store on an existing client. The caller keeps
// ownership of the client unless it calls Close.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Append adds messages to the end of the session's transcript and refreshes
// its TTL. The writes go out in a single pipeline.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message for session %s: %w", sessionID, err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	score := float64(noExpiry)

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		score = float64(time.Now().Add(s.ttl).Unix())
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// Load retrieves the session's transcript in chronological order. Redis
// drops empty lists, so a missing key and an empty transcript both come
// back as domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	msgs := make([]domain.Message, len(raw))
	for i, data := range raw {
		if err := json.Unmarshal([]byte(data), &msgs[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d of session %s: %w", i, sessionID, err)
		}
	}
	return msgs, nil
}

// Trim discards the oldest messages so that at most keep remain. Trimming
// to zero removes the session entirely.
func (s *Store) Trim(ctx context.Context, sessionID string, keep int) error {
	if keep <= 0 {
		return s.Delete(ctx, sessionID)
	}
	if err := s.client.LTrim(ctx, s.key(sessionID), int64(-keep), -1).Err(); err != nil {
		return fmt.Errorf("failed to trim session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes the session's transcript and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the IDs of all live sessions. Expired entries are cleaned
// out of the index lazily on each call.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("failed to clean session index: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client so companion adapters, the
// Locker in particular, can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}
