package dto

import (
	"encoding/json"

	"ai-dataviz-be/internal/entity"

	"github.com/google/uuid"
)

// VisualizeRequest drives both first generation and refinement. An absent or
// empty instruction returns the existing chart or generates it.
type VisualizeRequest struct {
	SessionId   uuid.UUID       `json:"sessionId" validate:"required"`
	Goal        entity.Goal     `json:"goal"`
	Summary     json.RawMessage `json:"summary"`
	Instruction string          `json:"instruction" validate:"max=2000"`
	RequestId   string          `json:"requestId" validate:"max=100"`
}

type ModifyVisualizationRequest struct {
	Goal        entity.Goal `json:"goal"`
	Instruction string      `json:"instruction" validate:"max=2000"`
	RequestId   string      `json:"requestId" validate:"max=100"`
}

type ReplayVisualizationRequest struct {
	Goal         entity.Goal `json:"goal"`
	HistoryIndex int         `json:"historyIndex"`
	RequestId    string      `json:"requestId" validate:"max=100"`
}

type ArtifactResponse struct {
	Code   string `json:"code"`
	Raster string `json:"raster"`
}

// PreviousArtifactData is attached to a failed refinement so the caller can
// keep the last good chart on screen.
type PreviousArtifactData struct {
	Previous *ArtifactResponse `json:"previous"`
}

// VisualizationUpdatedMessage is the in-process archive/realtime job.
type VisualizationUpdatedMessage struct {
	SessionId       uuid.UUID `json:"session_id"`
	UserId          uuid.UUID `json:"user_id"`
	VisualizationId uuid.UUID `json:"visualization_id"`
	Question        string    `json:"question"`
	EntryId         string    `json:"entry_id,omitempty"`
	Instruction     string    `json:"instruction,omitempty"`
}
