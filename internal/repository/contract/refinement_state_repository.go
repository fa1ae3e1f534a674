package contract

import (
	"context"

	"ai-dataviz-be/pkg/store"
)

// RefinementStateRepository holds the transient per-(session, goal) engine
// state shared by every instance serving the session.
type RefinementStateRepository interface {
	Get(ctx context.Context, sessionID, question string) (*store.RefinementState, bool, error)

	// Update applies fn to the current state (EMPTY when absent) and stores it.
	Update(ctx context.Context, sessionID, question string, fn func(s *store.RefinementState)) (*store.RefinementState, error)
}
