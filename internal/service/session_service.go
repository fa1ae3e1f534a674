package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-dataviz-be/internal/config"
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/repository/specification"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"
	"ai-dataviz-be/pkg/gateway"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItem, error)
	Update(ctx context.Context, userId, sessionId uuid.UUID, patch map[string]json.RawMessage) (*dto.SessionResponse, error)
	Summarize(ctx context.Context, userId, sessionId uuid.UUID, refresh bool) (json.RawMessage, error)
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	generator      gateway.Generator
	datasets       IDatasetService
	eventPublisher events.Publisher
	credits        config.CreditConfig
	logger         logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	generator gateway.Generator,
	datasets IDatasetService,
	eventPublisher events.Publisher,
	credits config.CreditConfig,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		generator:      generator,
		datasets:       datasets,
		eventPublisher: eventPublisher,
		credits:        credits,
		logger:         log,
	}
}

// Create charges the session cost and inserts the session in one transaction.
func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session := &entity.Session{
		Id:             uuid.New(),
		UserId:         userId,
		Title:          strings.TrimSpace(req.Title),
		DatasetUrl:     req.DatasetUrl,
		Goals:          []entity.Goal{},
		Visualizations: []entity.Visualization{},
		Version:        1,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	balance := 0
	if s.credits.SessionCost > 0 {
		var err error
		balance, err = debitCredits(ctx, uow, userId, s.credits.SessionCost, entity.CreditServiceSession, &session.Id)
		if err != nil {
			return nil, err
		}
	}

	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session created", map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": session.Id.String(),
		"balance":    balance,
	})

	if s.credits.SessionCost > 0 {
		publishCreditsAdjusted(ctx, s.eventPublisher, userId, entity.CreditActionDeduct, s.credits.SessionCost, balance, entity.CreditServiceSession)
	}
	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.SessionCreated,
			Data: map[string]interface{}{
				"user_id":     userId.String(),
				"session_id":  session.Id.String(),
				"dataset_url": session.DatasetUrl,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("SESSION", "Failed to publish SESSION_CREATED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return dto.ToSessionResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	return dto.ToSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionListItem, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, dto.ToSessionListItem(session))
	}
	return res, nil
}

// Update merge-patches the top-level title and datasetSummary. A null
// datasetSummary clears the cached summary.
func (s *sessionService) Update(ctx context.Context, userId, sessionId uuid.UUID, patch map[string]json.RawMessage) (*dto.SessionResponse, error) {
	if len(patch) == 0 {
		return nil, apperror.Validation("No fields to update")
	}

	var (
		title      *string
		summary    json.RawMessage
		hasSummary bool
	)
	for field, raw := range patch {
		switch field {
		case "title":
			var t string
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, apperror.Validation("title must be a string")
			}
			t = strings.TrimSpace(t)
			if len(t) > 200 {
				return nil, apperror.Validation("title must be at most 200 characters")
			}
			title = &t
		case "datasetSummary":
			trimmed := bytes.TrimSpace(raw)
			if !bytes.Equal(trimmed, []byte("null")) && (len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed)) {
				return nil, apperror.Validation("datasetSummary must be an object or null")
			}
			summary = json.RawMessage(trimmed)
			hasSummary = true
		default:
			return nil, apperror.Validation(fmt.Sprintf("Field '%s' cannot be updated", field))
		}
	}

	session, err := mutateSession(ctx, s.uowFactory, userId, sessionId, func(_ context.Context, _ unitofwork.UnitOfWork, session *entity.Session) error {
		if title != nil {
			session.Title = *title
		}
		if hasSummary {
			if string(summary) == "null" {
				session.DatasetSummary = nil
			} else {
				session.DatasetSummary = summary
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToSessionResponse(session), nil
}

// Summarize returns the cached summary, generating it once when absent.
// refresh regenerates and replaces it.
func (s *sessionService) Summarize(ctx context.Context, userId, sessionId uuid.UUID, refresh bool) (json.RawMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := loadSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if session.HasSummary() && !refresh {
		return session.DatasetSummary, nil
	}

	summary, err := s.generator.Summarize(ctx, s.datasets.ResolveURL(session.DatasetUrl))
	if err != nil {
		s.logger.Warn("SESSION", "Summarization failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil, err
	}

	if refresh {
		updated, err := mutateSession(ctx, s.uowFactory, userId, sessionId, func(_ context.Context, _ unitofwork.UnitOfWork, session *entity.Session) error {
			session.DatasetSummary = summary
			return nil
		})
		if err != nil {
			return nil, err
		}
		return updated.DatasetSummary, nil
	}

	stored, err := uow.SessionRepository().SetSummaryIfEmpty(ctx, sessionId, summary)
	if err != nil {
		return nil, err
	}
	if stored {
		return summary, nil
	}

	// Another request cached a summary first; that one wins.
	session, err = loadSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return session.DatasetSummary, nil
}
