package mapper

import (
	"encoding/json"
	"fmt"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/model"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) (*entity.Session, error) {
	if s == nil {
		return nil, nil
	}

	goals := []entity.Goal{}
	if len(s.Goals) > 0 {
		if err := json.Unmarshal(s.Goals, &goals); err != nil {
			return nil, fmt.Errorf("decode goals of session %s: %w", s.Id, err)
		}
	}

	visualizations := []entity.Visualization{}
	if len(s.Visualizations) > 0 {
		if err := json.Unmarshal(s.Visualizations, &visualizations); err != nil {
			return nil, fmt.Errorf("decode visualizations of session %s: %w", s.Id, err)
		}
	}

	if goals == nil {
		goals = []entity.Goal{}
	}
	if visualizations == nil {
		visualizations = []entity.Visualization{}
	}

	var summary json.RawMessage
	if len(s.DatasetSummary) > 0 && string(s.DatasetSummary) != "null" {
		summary = json.RawMessage(s.DatasetSummary)
	}

	return &entity.Session{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		DatasetUrl:        s.DatasetUrl,
		DatasetSummary:    summary,
		Goals:             goals,
		Visualizations:    visualizations,
		GoalRegenerations: s.GoalRegenerations,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func (m *SessionMapper) ToModel(s *entity.Session) (*model.Session, error) {
	if s == nil {
		return nil, nil
	}

	goals, err := m.EncodeGoals(s.Goals)
	if err != nil {
		return nil, err
	}
	visualizations, err := m.EncodeVisualizations(s.Visualizations)
	if err != nil {
		return nil, err
	}

	return &model.Session{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		DatasetUrl:        s.DatasetUrl,
		DatasetSummary:    m.EncodeSummary(s.DatasetSummary),
		Goals:             goals,
		Visualizations:    visualizations,
		GoalRegenerations: s.GoalRegenerations,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func (m *SessionMapper) EncodeGoals(goals []entity.Goal) (datatypes.JSON, error) {
	if goals == nil {
		goals = []entity.Goal{}
	}
	b, err := json.Marshal(goals)
	if err != nil {
		return nil, fmt.Errorf("encode goals: %w", err)
	}
	return datatypes.JSON(b), nil
}

func (m *SessionMapper) EncodeVisualizations(visualizations []entity.Visualization) (datatypes.JSON, error) {
	if visualizations == nil {
		visualizations = []entity.Visualization{}
	}
	b, err := json.Marshal(visualizations)
	if err != nil {
		return nil, fmt.Errorf("encode visualizations: %w", err)
	}
	return datatypes.JSON(b), nil
}

// EncodeSummary maps an absent summary to SQL NULL.
func (m *SessionMapper) EncodeSummary(summary json.RawMessage) datatypes.JSON {
	if len(summary) == 0 || string(summary) == "null" {
		return nil
	}
	return datatypes.JSON(summary)
}
