package gateway

import (
	"context"
	"encoding/json"
)

// Goal mirrors the goal object exchanged with the generation service.
type Goal struct {
	Question      string `json:"question"`
	Rationale     string `json:"rationale"`
	Visualization string `json:"visualization"`
}

// Artifact is one visualize result. ModificationHistory is whatever the
// service echoes back and is not trusted as state.
type Artifact struct {
	Code                string          `json:"code"`
	Raster              string          `json:"raster"`
	ModificationHistory json.RawMessage `json:"modification_history,omitempty"`
}

// Generator is the stateless boundary to the external generation service.
// Every call carries the full summary and goal.
type Generator interface {
	Summarize(ctx context.Context, datasetUrl string) (json.RawMessage, error)
	Goals(ctx context.Context, summary json.RawMessage, n int) ([]Goal, error)
	Visualize(ctx context.Context, summary json.RawMessage, goal Goal, instruction string) (*Artifact, error)
}

type summarizeRequest struct {
	DatasetUrl string `json:"datasetUrl"`
}

type goalsRequest struct {
	Summary json.RawMessage `json:"summary"`
	N       int             `json:"n,omitempty"`
}

type visualizeRequest struct {
	Summary     json.RawMessage `json:"summary"`
	Goal        Goal            `json:"goal"`
	Instruction string          `json:"instruction"`
}

type errorResponse struct {
	Error string `json:"error"`
}
