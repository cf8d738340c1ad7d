package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStateTTL bounds how long a finished or abandoned poll state lingers.
const DefaultStateTTL = 24 * time.Hour

// StateStore holds the current verification request per seller and subject
// type. Saving a state whose request is no longer current is a no-op.
type StateStore interface {
	// Begin records state as the current request, replacing any previous one.
	Begin(ctx context.Context, sellerID string, state *PollState) error
	// Load returns the current state, or nil if there is none.
	Load(ctx context.Context, sellerID string, subjectType SubjectType) (*PollState, error)
	// Save stores state if its request is still current. It reports stale=true
	// and leaves the store unchanged otherwise.
	Save(ctx context.Context, sellerID string, state *PollState) (stale bool, err error)
	// Clear forgets the current request.
	Clear(ctx context.Context, sellerID string, subjectType SubjectType) error
	// Lock takes the short-lived trigger lock guarding task creation. It
	// reports false if another trigger holds it.
	Lock(ctx context.Context, sellerID string, subjectType SubjectType, ttl time.Duration) (bool, error)
	// Unlock releases the trigger lock.
	Unlock(ctx context.Context, sellerID string, subjectType SubjectType) error
}

type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a StateStore on top of Redis.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &redisStateStore{client: client, ttl: ttl}
}

func stateKey(sellerID string, subjectType SubjectType) string {
	return fmt.Sprintf("verification:%s:%s", sellerID, subjectType)
}

func lockKey(sellerID string, subjectType SubjectType) string {
	return fmt.Sprintf("verification:lock:%s:%s", sellerID, subjectType)
}

func (s *redisStateStore) Begin(ctx context.Context, sellerID string, state *PollState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode poll state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(sellerID, state.SubjectType), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store poll state: %w", err)
	}
	return nil
}

func (s *redisStateStore) Load(ctx context.Context, sellerID string, subjectType SubjectType) (*PollState, error) {
	data, err := s.client.Get(ctx, stateKey(sellerID, subjectType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load poll state: %w", err)
	}
	var state PollState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode poll state: %w", err)
	}
	return &state, nil
}

func (s *redisStateStore) Save(ctx context.Context, sellerID string, state *PollState) (bool, error) {
	key := stateKey(sellerID, state.SubjectType)
	data, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("failed to encode poll state: %w", err)
	}

	stale := false
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			stale = true
			return nil
		}
		if err != nil {
			return err
		}
		var current PollState
		if err := json.Unmarshal(raw, &current); err != nil {
			return err
		}
		if current.RequestID != state.RequestID {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, redis.TxFailedErr) {
		// lost the race to a concurrent Begin
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to save poll state: %w", err)
	}
	return stale, nil
}

func (s *redisStateStore) Clear(ctx context.Context, sellerID string, subjectType SubjectType) error {
	if err := s.client.Del(ctx, stateKey(sellerID, subjectType)).Err(); err != nil {
		return fmt.Errorf("failed to clear poll state: %w", err)
	}
	return nil
}

func (s *redisStateStore) Lock(ctx context.Context, sellerID string, subjectType SubjectType, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(sellerID, subjectType), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to take verification lock: %w", err)
	}
	return ok, nil
}

func (s *redisStateStore) Unlock(ctx context.Context, sellerID string, subjectType SubjectType) error {
	if err := s.client.Del(ctx, lockKey(sellerID, subjectType)).Err(); err != nil {
		return fmt.Errorf("failed to release verification lock: %w", err)
	}
	return nil
}
