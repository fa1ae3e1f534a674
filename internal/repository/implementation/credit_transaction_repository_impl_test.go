package implementation

import (
	"context"
	"testing"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditTransactionRepository_CreateAndFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditTransactionRepository(db)
	ctx := context.Background()
	userId := seedUser(t, db, 0)
	sessionId := uuid.New()

	session := entity.CreditServiceSession
	manual := entity.CreditServiceManual
	require.NoError(t, repo.Create(ctx, &entity.CreditTransaction{
		UserId:          userId,
		TransactionType: entity.CreditTransactionSpend,
		Amount:          -5,
		BalanceAfter:    5,
		ServiceUsed:     &session,
		RelatedId:       &sessionId,
	}))
	require.NoError(t, repo.Create(ctx, &entity.CreditTransaction{
		UserId:          userId,
		TransactionType: entity.CreditTransactionGrant,
		Amount:          3,
		BalanceAfter:    8,
		ServiceUsed:     &manual,
	}))

	all, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	spends, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByServiceUsed{Service: entity.CreditServiceSession},
	)
	require.NoError(t, err)
	require.Len(t, spends, 1)
	assert.Equal(t, -5, spends[0].Amount)
	assert.Equal(t, entity.CreditTransactionSpend, spends[0].TransactionType)

	related, err := repo.FindAll(ctx, specification.ByRelatedID{RelatedID: sessionId})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, 5, related[0].BalanceAfter)

	page, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.Pagination{Limit: 1, Offset: 0},
	)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
