package store

import (
	"strings"
	"time"
)

// Refinement states of a single (session, goal) view.
const (
	StateEmpty      = "EMPTY"
	StateGenerating = "GENERATING"
	StateReady      = "READY"
	StateModifying  = "MODIFYING"
	StateFailed     = "FAILED"
)

// Artifact is a rendered chart kept for rollback.
type Artifact struct {
	Code   string `json:"code"`
	Raster string `json:"raster"`
}

// RefinementState is transient per-goal engine state. It is never persisted
// with the session document.
type RefinementState struct {
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	State     string    `json:"state"`
	Previous  *Artifact `json:"previous,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRefinementState is the EMPTY state of a goal nobody has touched yet.
func NewRefinementState(sessionID, question string) *RefinementState {
	return &RefinementState{
		SessionID: sessionID,
		Question:  strings.TrimSpace(question),
		State:     StateEmpty,
	}
}
