package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/mapper"
	"ai-dataviz-be/internal/model"
	"ai-dataviz-be/internal/repository/contract"
	"ai-dataviz-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.Version == 0 {
		session.Version = 1
	}
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*session = *created
	return nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	var models []*model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Session, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepositoryImpl) UpdateIfVersion(ctx context.Context, session *entity.Session) (bool, error) {
	goals, err := r.mapper.EncodeGoals(session.Goals)
	if err != nil {
		return false, err
	}
	visualizations, err := r.mapper.EncodeVisualizations(session.Visualizations)
	if err != nil {
		return false, err
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND version = ?", session.Id, session.Version).
		Updates(map[string]interface{}{
			"title":              session.Title,
			"dataset_summary":    r.mapper.EncodeSummary(session.DatasetSummary),
			"goals":              goals,
			"visualizations":     visualizations,
			"goal_regenerations": session.GoalRegenerations,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	session.Version++
	session.UpdatedAt = now
	return true, nil
}

func (r *SessionRepositoryImpl) SetSummaryIfEmpty(ctx context.Context, id uuid.UUID, summary json.RawMessage) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND dataset_summary IS NULL", id).
		Updates(map[string]interface{}{
			"dataset_summary": r.mapper.EncodeSummary(summary),
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
