package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ai-dataviz-be/internal/config"
	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/repository/contract"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"
	"ai-dataviz-be/pkg/gateway"
	"ai-dataviz-be/pkg/lock"
	"ai-dataviz-be/pkg/store"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type IVisualizationService interface {
	List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Visualization, error)
	// Visualize returns the goal's chart, generating it first if needed, or
	// refines it when req carries an instruction.
	Visualize(ctx context.Context, userId uuid.UUID, req *dto.VisualizeRequest) (*entity.Visualization, error)
	Ensure(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, summary json.RawMessage) (*entity.Visualization, error)
	Modify(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, instruction, requestId string, summary json.RawMessage) (*entity.Visualization, error)
	Replay(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, historyIndex int, requestId string) (*entity.Visualization, error)
	Previous(ctx context.Context, userId, sessionId uuid.UUID, question string) (*dto.ArtifactResponse, error)
}

type visualizationService struct {
	uowFactory unitofwork.RepositoryFactory
	generator  gateway.Generator
	states         contract.RefinementStateRepository
	locker         lock.Locker
	publisher      IPublisherService
	eventPublisher events.Publisher
	credits        config.CreditConfig
	timeout        time.Duration
	logger         logger.ILogger
}

func NewVisualizationService(
	uowFactory unitofwork.RepositoryFactory,
	generator gateway.Generator,
	states contract.RefinementStateRepository,
	locker lock.Locker,
	publisher IPublisherService,
	eventPublisher events.Publisher,
	credits config.CreditConfig,
	timeout time.Duration,
	log logger.ILogger,
) IVisualizationService {
	return &visualizationService{
		uowFactory:     uowFactory,
		generator:      generator,
		states:         states,
		locker:         locker,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		credits:        credits,
		timeout:        timeout,
		logger:         log,
	}
}

func (s *visualizationService) List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Visualization, error) {
	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	return session.Visualizations, nil
}

func (s *visualizationService) Visualize(ctx context.Context, userId uuid.UUID, req *dto.VisualizeRequest) (*entity.Visualization, error) {
	if req.Instruction == "" {
		return s.Ensure(ctx, userId, req.SessionId, req.Goal, req.Summary)
	}
	return s.Modify(ctx, userId, req.SessionId, req.Goal, req.Instruction, req.RequestId, req.Summary)
}

// Ensure returns the live chart for goal or generates the first one.
func (s *visualizationService) Ensure(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, summary json.RawMessage) (*entity.Visualization, error) {
	goal.Question = strings.TrimSpace(goal.Question)
	if goal.Question == "" {
		return nil, apperror.Validation("Goal question is required")
	}

	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	if _, existing := session.FindVisualization(goal.Question); existing != nil {
		s.setState(ctx, sessionId, goal.Question, store.StateReady, "")
		return existing, nil
	}

	summary, err = resolveSummary(session, summary)
	if err != nil {
		return nil, err
	}
	if err := ensureCredits(ctx, s.uowFactory, userId, s.credits.VisualizationCost); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, generationLockKey(sessionId, goal.Question), s.timeout+30*time.Second)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperror.ErrConflict.WithData(map[string]string{"reason": "Visualization for this goal is already being generated"})
		}
		return nil, err
	}
	defer release()

	s.setState(ctx, sessionId, goal.Question, store.StateGenerating, "")

	// Detached so an abandoned request still persists a charged result.
	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	artifact, err := s.generator.Visualize(gctx, summary, toGatewayGoal(goal), "")
	if err != nil {
		s.setState(gctx, sessionId, goal.Question, store.StateEmpty, err.Error())
		s.logger.Warn("VISUALIZATION", "Initial generation failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"question":   goal.Question,
			"error":      err.Error(),
		})
		return nil, err
	}

	var result entity.Visualization
	created := false
	balance := -1
	_, err = mutateSession(gctx, s.uowFactory, userId, sessionId, func(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) error {
		// Each attempt starts clean; a rolled-back attempt must not leak its outcome.
		created, balance = false, -1
		if _, existing := session.FindVisualization(goal.Question); existing != nil {
			result = *existing
			return errNoChange
		}

		now := time.Now()
		viz := entity.Visualization{
			Id:                  uuid.New(),
			Goal:                goal,
			Code:                artifact.Code,
			Raster:              artifact.Raster,
			ModificationHistory: []entity.Modification{},
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		appendGoal(session, goal)
		session.Visualizations = append(session.Visualizations, viz)

		charged, err := s.charge(ctx, uow, userId, viz.Id)
		if err != nil {
			return err
		}
		balance = charged
		result = viz
		created = true
		return nil
	})
	if err != nil {
		s.setState(gctx, sessionId, goal.Question, store.StateEmpty, err.Error())
		return nil, err
	}

	s.setState(gctx, sessionId, goal.Question, store.StateReady, "")
	if created {
		s.publishCharge(gctx, userId, balance)
		s.logger.Info("VISUALIZATION", "Visualization generated", map[string]interface{}{
			"session_id":       sessionId.String(),
			"visualization_id": result.Id.String(),
		})
		s.announce(gctx, userId, sessionId, &result, "", "")
	}
	return &result, nil
}

func (s *visualizationService) Modify(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, instruction, requestId string, summary json.RawMessage) (*entity.Visualization, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, apperror.ErrEmptyInstruction
	}

	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	_, viz := session.FindVisualization(goal.Question)
	if viz == nil {
		return nil, apperror.NotFound("Visualization")
	}

	return s.refine(ctx, userId, session, viz, instruction, requestId, summary)
}

// Replay regenerates with the instruction stored at historyIndex and appends
// the result as a new entry. History is never rewound.
func (s *visualizationService) Replay(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, historyIndex int, requestId string) (*entity.Visualization, error) {
	session, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId)
	if err != nil {
		return nil, err
	}
	_, viz := session.FindVisualization(goal.Question)
	if viz == nil {
		return nil, apperror.NotFound("Visualization")
	}
	if historyIndex < 0 || historyIndex >= len(viz.ModificationHistory) {
		return nil, apperror.NotFound("History entry")
	}

	return s.refine(ctx, userId, session, viz, viz.ModificationHistory[historyIndex].Instruction, requestId, nil)
}

func (s *visualizationService) Previous(ctx context.Context, userId, sessionId uuid.UUID, question string) (*dto.ArtifactResponse, error) {
	if _, err := loadSession(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, sessionId); err != nil {
		return nil, err
	}
	state, ok, err := s.states.Get(ctx, sessionId.String(), question)
	if err != nil {
		return nil, err
	}
	if !ok || state.Previous == nil {
		return nil, apperror.NotFound("Previous visualization")
	}
	return &dto.ArtifactResponse{Code: state.Previous.Code, Raster: state.Previous.Raster}, nil
}

func (s *visualizationService) refine(ctx context.Context, userId uuid.UUID, session *entity.Session, viz *entity.Visualization, instruction, requestId string, summary json.RawMessage) (*entity.Visualization, error) {
	sessionId := session.Id
	question := viz.Goal.Question

	if requestId != "" {
		if _, done := viz.FindRequest(requestId); done {
			return viz, nil
		}
	} else {
		requestId = ulid.Make().String()
	}

	summary, err := resolveSummary(session, summary)
	if err != nil {
		return nil, err
	}
	if err := ensureCredits(ctx, s.uowFactory, userId, s.credits.VisualizationCost); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, generationLockKey(sessionId, question), s.timeout+30*time.Second)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperror.ErrConflict.WithData(map[string]string{"reason": "Visualization for this goal is already being modified"})
		}
		return nil, err
	}
	defer release()

	previous := viz.Artifact()
	_, err = s.states.Update(ctx, sessionId.String(), question, func(st *store.RefinementState) {
		st.State = store.StateModifying
		st.Previous = &store.Artifact{Code: previous.Code, Raster: previous.Raster}
		st.LastError = ""
	})
	if err != nil {
		s.logger.Warn("VISUALIZATION", "Failed to save refinement state", map[string]interface{}{"error": err.Error()})
	}

	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	artifact, err := s.generator.Visualize(gctx, summary, toGatewayGoal(viz.Goal), instruction)
	if err != nil {
		s.setState(gctx, sessionId, question, store.StateFailed, err.Error())
		s.logger.Warn("VISUALIZATION", "Modification failed", map[string]interface{}{
			"session_id":  sessionId.String(),
			"question":    question,
			"instruction": instruction,
			"error":       err.Error(),
		})
		return nil, withPrevious(err, previous)
	}

	var result entity.Visualization
	var entry entity.Modification
	appended := false
	balance := -1
	_, err = mutateSession(gctx, s.uowFactory, userId, sessionId, func(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) error {
		appended, balance = false, -1
		_, current := session.FindVisualization(question)
		if current == nil {
			return apperror.NotFound("Visualization")
		}
		if _, done := current.FindRequest(requestId); done {
			result = *current
			return errNoChange
		}

		entry = entity.Modification{
			Id:          ulid.Make().String(),
			RequestId:   requestId,
			Instruction: instruction,
			Code:        artifact.Code,
			Raster:      artifact.Raster,
			CreatedAt:   time.Now(),
		}
		current.Append(entry)

		charged, err := s.charge(ctx, uow, userId, current.Id)
		if err != nil {
			return err
		}
		balance = charged
		result = *current
		appended = true
		return nil
	})
	if err != nil {
		s.setState(gctx, sessionId, question, store.StateFailed, err.Error())
		return nil, withPrevious(err, previous)
	}

	s.setState(gctx, sessionId, question, store.StateReady, "")
	if appended {
		s.publishCharge(gctx, userId, balance)
		s.logger.Info("VISUALIZATION", "Visualization modified", map[string]interface{}{
			"session_id":       sessionId.String(),
			"visualization_id": result.Id.String(),
			"history_length":   len(result.ModificationHistory),
		})
		s.announce(gctx, userId, sessionId, &result, entry.Id, instruction)
	}
	return &result, nil
}

// charge debits the generation cost inside the session write and returns
// the balance after it, or -1 when generation is free.
func (s *visualizationService) charge(ctx context.Context, uow unitofwork.UnitOfWork, userId, vizId uuid.UUID) (int, error) {
	if s.credits.VisualizationCost <= 0 {
		return -1, nil
	}
	return debitCredits(ctx, uow, userId, s.credits.VisualizationCost, entity.CreditServiceVisualization, &vizId)
}

// publishCharge runs only after the debit committed.
func (s *visualizationService) publishCharge(ctx context.Context, userId uuid.UUID, balance int) {
	if balance < 0 {
		return
	}
	publishCreditsAdjusted(ctx, s.eventPublisher, userId, entity.CreditActionDeduct, s.credits.VisualizationCost, balance, entity.CreditServiceVisualization)
}

func (s *visualizationService) setState(ctx context.Context, sessionId uuid.UUID, question, state, lastError string) {
	_, err := s.states.Update(ctx, sessionId.String(), question, func(st *store.RefinementState) {
		st.State = state
		st.LastError = lastError
	})
	if err != nil {
		s.logger.Warn("VISUALIZATION", "Failed to save refinement state", map[string]interface{}{
			"session_id": sessionId.String(),
			"state":      state,
			"error":      err.Error(),
		})
	}
}

func (s *visualizationService) announce(ctx context.Context, userId, sessionId uuid.UUID, viz *entity.Visualization, entryId, instruction string) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.VisualizationUpdatedMessage{
		SessionId:       sessionId,
		UserId:          userId,
		VisualizationId: viz.Id,
		Question:        viz.Goal.Question,
		EntryId:         entryId,
		Instruction:     instruction,
	})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Warn("VISUALIZATION", "Failed to publish visualization update", map[string]interface{}{"error": err.Error()})
	}
}

func resolveSummary(session *entity.Session, override json.RawMessage) (json.RawMessage, error) {
	if session.HasSummary() {
		return session.DatasetSummary, nil
	}
	trimmed := strings.TrimSpace(string(override))
	if trimmed != "" && trimmed != "null" {
		return override, nil
	}
	return nil, apperror.Validation("Dataset summary is required before generating visualizations")
}

func withPrevious(err error, previous entity.Artifact) error {
	appErr, ok := apperror.As(err)
	if !ok {
		return err
	}
	return appErr.WithData(dto.PreviousArtifactData{
		Previous: &dto.ArtifactResponse{Code: previous.Code, Raster: previous.Raster},
	})
}

func toGatewayGoal(g entity.Goal) gateway.Goal {
	return gateway.Goal{
		Question:      g.Question,
		Rationale:     g.Rationale,
		Visualization: g.Visualization,
	}
}

func generationLockKey(sessionId uuid.UUID, question string) string {
	return "viz:" + sessionId.String() + "|" + strings.TrimSpace(question)
}
