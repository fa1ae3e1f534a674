package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-dataviz-be/internal/repository/contract"
	"ai-dataviz-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// RefinementStateRepository is the single-instance fallback when Redis is unavailable.
type RefinementStateRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

var _ contract.RefinementStateRepository = &RefinementStateRepository{}

func NewRefinementStateRepository(ttl time.Duration) *RefinementStateRepository {
	return &RefinementStateRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func key(sessionID, question string) string {
	return sessionID + "|" + strings.TrimSpace(question)
}

// Get returns a copy so callers cannot race on the cached value.
func (r *RefinementStateRepository) Get(_ context.Context, sessionID, question string) (*store.RefinementState, bool, error) {
	if x, found := r.cache.Get(key(sessionID, question)); found {
		cp := *x.(*store.RefinementState)
		return &cp, true, nil
	}
	return nil, false, nil
}

func (r *RefinementStateRepository) Update(ctx context.Context, sessionID, question string, fn func(s *store.RefinementState)) (*store.RefinementState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok, _ := r.Get(ctx, sessionID, question)
	if !ok {
		state = store.NewRefinementState(sessionID, question)
	}
	fn(state)
	state.UpdatedAt = time.Now()
	r.cache.Set(key(sessionID, question), state, cache.DefaultExpiration)

	cp := *state
	return &cp, nil
}
