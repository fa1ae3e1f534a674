package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is the analysis workspace document. Goals and visualizations are
// embedded so a single fetch yields the full refinement history.
type Session struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Title             string
	DatasetUrl        string
	DatasetSummary    json.RawMessage
	Goals             []Goal
	Visualizations    []Visualization
	GoalRegenerations int
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Goal struct {
	Question      string `json:"question"`
	Rationale     string `json:"rationale"`
	Visualization string `json:"visualization"`
}

// Artifact is one rendered chart: the plotting code and its base64 PNG raster.
type Artifact struct {
	Code   string `json:"code"`
	Raster string `json:"raster"`
}

type Modification struct {
	Id           string    `json:"id"`
	RequestId    string    `json:"request_id,omitempty"`
	Instruction  string    `json:"instruction"`
	Code         string    `json:"code"`
	Raster       string    `json:"raster"`
	ImageUrl     string    `json:"image_url,omitempty"`
	ThumbnailUrl string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Visualization is the single live chart for a goal. Code/Raster/Instruction
// hold the initial generation until the first modification, then mirror the
// last ModificationHistory entry.
type Visualization struct {
	Id                  uuid.UUID      `json:"id"`
	Goal                Goal           `json:"goal"`
	Code                string         `json:"code"`
	Raster              string         `json:"raster"`
	Instruction         string         `json:"instruction"`
	ModificationHistory []Modification `json:"modification_history"`
	ImageUrl            string         `json:"image_url,omitempty"`
	ThumbnailUrl        string         `json:"thumbnail_url,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// SameQuestion is the goal identity used for visualization matching.
func SameQuestion(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func (s *Session) HasSummary() bool {
	trimmed := strings.TrimSpace(string(s.DatasetSummary))
	return trimmed != "" && trimmed != "null"
}

func (s *Session) HasGoal(question string) bool {
	for _, g := range s.Goals {
		if SameQuestion(g.Question, question) {
			return true
		}
	}
	return false
}

// FindVisualization returns the index of the live visualization for question, or -1.
func (s *Session) FindVisualization(question string) (int, *Visualization) {
	for i := range s.Visualizations {
		if SameQuestion(s.Visualizations[i].Goal.Question, question) {
			return i, &s.Visualizations[i]
		}
	}
	return -1, nil
}

func (v *Visualization) Artifact() Artifact {
	return Artifact{Code: v.Code, Raster: v.Raster}
}

// FindEntry returns the history entry with id, if any.
func (v *Visualization) FindEntry(id string) (*Modification, bool) {
	for i := range v.ModificationHistory {
		if v.ModificationHistory[i].Id == id {
			return &v.ModificationHistory[i], true
		}
	}
	return nil, false
}

// FindRequest returns the history entry created by requestId, if any.
func (v *Visualization) FindRequest(requestId string) (*Modification, bool) {
	if requestId == "" {
		return nil, false
	}
	for i := range v.ModificationHistory {
		if v.ModificationHistory[i].RequestId == requestId {
			return &v.ModificationHistory[i], true
		}
	}
	return nil, false
}

// Append records m as the newest history entry and makes it the live artifact.
func (v *Visualization) Append(m Modification) {
	v.ModificationHistory = append(v.ModificationHistory, m)
	v.Code = m.Code
	v.Raster = m.Raster
	v.Instruction = m.Instruction
	v.UpdatedAt = m.CreatedAt
}
