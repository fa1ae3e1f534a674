package contract

import (
	"context"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/repository/specification"
)

type CreditTransactionRepository interface {
	Create(ctx context.Context, tx *entity.CreditTransaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditTransaction, error)
}
