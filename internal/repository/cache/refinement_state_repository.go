package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-dataviz-be/internal/repository/contract"
	"ai-dataviz-be/internal/repository/memory"
	"ai-dataviz-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 5

// ErrStateContended is returned when concurrent writers keep winning the WATCH race.
var ErrStateContended = errors.New("refinement state: too many concurrent updates")

// RefinementStateRepository keeps engine state in Redis so every instance
// sees the same previous artifact.
type RefinementStateRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ contract.RefinementStateRepository = &RefinementStateRepository{}

func NewRefinementStateRepository(rdb *redis.Client, ttl time.Duration) *RefinementStateRepository {
	return &RefinementStateRepository{rdb: rdb, prefix: "refinement:", ttl: ttl}
}

// New picks Redis when a client is configured and reachable.
func New(ctx context.Context, rdb *redis.Client, ttl time.Duration) contract.RefinementStateRepository {
	if rdb != nil && rdb.Ping(ctx).Err() == nil {
		return NewRefinementStateRepository(rdb, ttl)
	}
	return memory.NewRefinementStateRepository(ttl)
}

func (r *RefinementStateRepository) key(sessionID, question string) string {
	return r.prefix + sessionID + "|" + strings.TrimSpace(question)
}

func (r *RefinementStateRepository) Get(ctx context.Context, sessionID, question string) (*store.RefinementState, bool, error) {
	state, err := load(ctx, r.rdb, r.key(sessionID, question))
	if err != nil {
		return nil, false, err
	}
	if state == nil {
		return nil, false, nil
	}
	return state, true, nil
}

// Update runs fn inside WATCH/MULTI and retries when another writer got there first.
func (r *RefinementStateRepository) Update(ctx context.Context, sessionID, question string, fn func(s *store.RefinementState)) (*store.RefinementState, error) {
	k := r.key(sessionID, question)

	var updated *store.RefinementState
	txf := func(tx *redis.Tx) error {
		state, err := load(ctx, tx, k)
		if err != nil {
			return err
		}
		if state == nil {
			state = store.NewRefinementState(sessionID, question)
		}
		fn(state)
		state.UpdatedAt = time.Now()

		raw, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, raw, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = state
		return nil
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, k)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("update refinement state: %w", err)
	}
	return nil, ErrStateContended
}

// getter is the slice of the client API shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, k string) (*store.RefinementState, error) {
	raw, err := c.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get refinement state: %w", err)
	}

	var state store.RefinementState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode refinement state: %w", err)
	}
	return &state, nil
}
