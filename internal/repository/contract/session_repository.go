package contract

import (
	"context"
	"encoding/json"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateIfVersion writes the mutable fields of session only when the stored
	// version still equals session.Version. On success session.Version is bumped.
	UpdateIfVersion(ctx context.Context, session *entity.Session) (bool, error)

	// SetSummaryIfEmpty caches summary only when none is stored yet.
	SetSummaryIfEmpty(ctx context.Context, id uuid.UUID, summary json.RawMessage) (bool, error)
}
