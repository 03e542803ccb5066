// Package redisstore persists group chat transcripts in Redis. Every run is
// a list of JSON encoded messages under <prefix><run id>.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentchat/core"
)

// DefaultKeyPrefix namespaces transcript keys.
const DefaultKeyPrefix = "agentchat:transcript:"

var _ core.TranscriptStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	KeyPrefix string
	// TTL expires a transcript after its last append. Zero keeps it forever.
	TTL time.Duration
}

// Store is a Redis backed core.TranscriptStore.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// New creates a store on top of an existing client.
func New(client redis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: DefaultKeyPrefix}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{client: client, keyPrefix: opts.KeyPrefix, ttl: opts.TTL}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string, optFns ...func(o *Options)) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return New(client, optFns...), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(runID string) string {
	return s.keyPrefix + runID
}

// Append pushes msg onto the transcript of runID.
func (s *Store) Append(ctx context.Context, runID string, msg core.Message) error {
	if runID == "" {
		return core.InvalidArgument("run id is required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(runID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(runID), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append transcript %s: %w", runID, err)
	}

	return nil
}

// Load returns the transcript of runID in append order.
func (s *Store) Load(ctx context.Context, runID string) ([]core.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", runID, err)
	}

	msgs := make([]core.Message, 0, len(raw))
	for i, r := range raw {
		var msg core.Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			return nil, fmt.Errorf("decode transcript %s entry %d: %w", runID, i, err)
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Delete removes the transcript of runID.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, s.key(runID)).Err(); err != nil {
		return fmt.Errorf("delete transcript %s: %w", runID, err)
	}
	return nil
}
