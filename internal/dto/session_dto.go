package dto

import (
	"encoding/json"
	"time"

	"ai-dataviz-be/internal/entity"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	DatasetUrl string `json:"datasetUrl" validate:"required,url"`
	Title      string `json:"title" validate:"max=200"`
}

type SummarizeSessionRequest struct {
	Refresh bool `json:"refresh"`
}

type SessionResponse struct {
	Id                uuid.UUID              `json:"id"`
	UserId            uuid.UUID              `json:"userId"`
	Title             string                 `json:"title"`
	DatasetUrl        string                 `json:"datasetUrl"`
	DatasetSummary    json.RawMessage        `json:"datasetSummary"`
	Goals             []entity.Goal          `json:"goals"`
	Visualizations    []entity.Visualization `json:"visualizations"`
	GoalRegenerations int                    `json:"goalRegenerations"`
	Version           int                    `json:"version"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// SessionListItem omits the embedded rasters.
type SessionListItem struct {
	Id                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	DatasetUrl         string    `json:"datasetUrl"`
	HasSummary         bool      `json:"hasSummary"`
	GoalCount          int       `json:"goalCount"`
	VisualizationCount int       `json:"visualizationCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// AddGoalRequest takes exactly one of Goal, CustomGoal or Generate.
type AddGoalRequest struct {
	Goal          *entity.Goal `json:"goal"`
	CustomGoal    string       `json:"customGoal" validate:"max=1000"`
	Visualization string       `json:"visualization" validate:"max=100"`
	Generate      bool         `json:"generate"`
	N             int          `json:"n" validate:"min=0,max=20"`
}

func ToSessionResponse(s *entity.Session) *SessionResponse {
	var summary json.RawMessage
	if s.HasSummary() {
		summary = s.DatasetSummary
	}
	return &SessionResponse{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		DatasetUrl:        s.DatasetUrl,
		DatasetSummary:    summary,
		Goals:             s.Goals,
		Visualizations:    s.Visualizations,
		GoalRegenerations: s.GoalRegenerations,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func ToSessionListItem(s *entity.Session) *SessionListItem {
	return &SessionListItem{
		Id:                 s.Id,
		Title:              s.Title,
		DatasetUrl:         s.DatasetUrl,
		HasSummary:         s.HasSummary(),
		GoalCount:          len(s.Goals),
		VisualizationCount: len(s.Visualizations),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
