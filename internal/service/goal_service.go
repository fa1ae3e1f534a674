package service

import (
	"context"
	"fmt"
	"strings"

	"ai-dataviz-be/internal/config"
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/gateway"

	"github.com/google/uuid"
)

const (
	customGoalRationale = "Custom goal provided by user"
	defaultGoalCount    = 5
)

type IGoalService interface {
	List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Goal, error)
	Add(ctx context.Context, userId, sessionId uuid.UUID, req *dto.AddGoalRequest) ([]entity.Goal, error)
	Generate(ctx context.Context, userId, sessionId uuid.UUID, n int) ([]entity.Goal, error)
	AddCustom(ctx context.Context, userId, sessionId uuid.UUID, question, visualization string) ([]entity.Goal, error)
	Append(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal) ([]entity.Goal, error)
}

type goalService struct {
	uowFactory unitofwork.RepositoryFactory
	generator  gateway.Generator
	credits    config.CreditConfig
	logger     logger.ILogger
}

func NewGoalService(uowFactory unitofwork.RepositoryFactory, generator gateway.Generator, credits config.CreditConfig, log logger.ILogger) IGoalService {
	return &goalService{
		uowFactory: uowFactory,
		generator:  generator,
		credits:    credits,
		logger:     log,
	}
}

func (s *goalService) List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Goal, error) {
	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	return session.Goals, nil
}

// Add dispatches on the request shape: a full goal, a custom question, or a
// generation request.
func (s *goalService) Add(ctx context.Context, userId, sessionId uuid.UUID, req *dto.AddGoalRequest) ([]entity.Goal, error) {
	custom := strings.TrimSpace(req.CustomGoal)

	shapes := 0
	if req.Goal != nil {
		shapes++
	}
	if custom != "" {
		shapes++
	}
	if req.Generate {
		shapes++
	}
	if shapes != 1 {
		return nil, apperror.Validation("Provide exactly one of goal, customGoal or generate")
	}

	switch {
	case req.Goal != nil:
		return s.Append(ctx, userId, sessionId, *req.Goal)
	case custom != "":
		return s.AddCustom(ctx, userId, sessionId, custom, req.Visualization)
	default:
		return s.Generate(ctx, userId, sessionId, req.N)
	}
}

// Generate asks the generation service for goals and appends the unseen
// ones. Every call after the first set counts as a regeneration.
func (s *goalService) Generate(ctx context.Context, userId, sessionId uuid.UUID, n int) ([]entity.Goal, error) {
	if n <= 0 {
		n = defaultGoalCount
	}

	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.HasSummary() {
		return nil, apperror.Validation("Dataset must be summarized before generating goals")
	}
	if len(session.Goals) > 0 && session.GoalRegenerations >= s.credits.MaxGoalRegenerations {
		return nil, apperror.Validation("Maximum number of goal regenerations reached for this session.")
	}

	generated, err := s.generator.Goals(ctx, session.DatasetSummary, n)
	if err != nil {
		return nil, err
	}

	updated, err := mutateSession(ctx, s.uowFactory, userId, sessionId, func(_ context.Context, _ unitofwork.UnitOfWork, session *entity.Session) error {
		if len(session.Goals) > 0 {
			if session.GoalRegenerations >= s.credits.MaxGoalRegenerations {
				return apperror.Validation("Maximum number of goal regenerations reached for this session.")
			}
			session.GoalRegenerations++
		}
		for _, g := range generated {
			appendGoal(session, entity.Goal{
				Question:      g.Question,
				Rationale:     g.Rationale,
				Visualization: g.Visualization,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("GOAL", "Goals generated", map[string]interface{}{
		"session_id": sessionId.String(),
		"generated":  len(generated),
		"total":      len(updated.Goals),
	})
	return updated.Goals, nil
}

func (s *goalService) AddCustom(ctx context.Context, userId, sessionId uuid.UUID, question, visualization string) ([]entity.Goal, error) {
	return s.Append(ctx, userId, sessionId, entity.Goal{
		Question:      question,
		Rationale:     customGoalRationale,
		Visualization: strings.TrimSpace(visualization),
	})
}

// Append adds goal unless its question is already present.
func (s *goalService) Append(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal) ([]entity.Goal, error) {
	goal.Question = strings.TrimSpace(goal.Question)
	if goal.Question == "" {
		return nil, apperror.Validation("Goal question is required")
	}

	updated, err := mutateSession(ctx, s.uowFactory, userId, sessionId, func(_ context.Context, _ unitofwork.UnitOfWork, session *entity.Session) error {
		if !appendGoal(session, goal) {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append goal: %w", err)
	}
	return updated.Goals, nil
}

// appendGoal reports whether goal was added.
func appendGoal(session *entity.Session, goal entity.Goal) bool {
	goal.Question = strings.TrimSpace(goal.Question)
	if goal.Question == "" || session.HasGoal(goal.Question) {
		return false
	}
	session.Goals = append(session.Goals, goal)
	return true
}
