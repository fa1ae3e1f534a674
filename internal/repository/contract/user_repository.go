package contract

import (
	"context"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Credit balance. Deduct only applies when the balance covers amount;
	// both report false when no row matched.
	GetCredits(ctx context.Context, id uuid.UUID) (int, bool, error)
	DeductCredits(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	AddCredits(ctx context.Context, id uuid.UUID, amount int) (bool, error)
}
