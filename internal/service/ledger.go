package service

import (
	"context"
	"fmt"
	"time"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"

	"github.com/google/uuid"
)

// debitCredits charges amount inside uow's transaction and records the ledger
// row. Returns the balance after the debit.
func debitCredits(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, amount int, serviceUsed string, relatedId *uuid.UUID) (int, error) {
	repo := uow.UserRepository()

	ok, err := repo.DeductCredits(ctx, userId, amount)
	if err != nil {
		return 0, fmt.Errorf("deduct credits: %w", err)
	}
	if !ok {
		_, found, err := repo.GetCredits(ctx, userId)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, apperror.UserNotFound()
		}
		return 0, apperror.ErrInsufficientCredits
	}

	return recordTransaction(ctx, uow, userId, entity.CreditTransactionSpend, -amount, serviceUsed, relatedId)
}

func creditCredits(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, amount int, serviceUsed string) (int, error) {
	ok, err := uow.UserRepository().AddCredits(ctx, userId, amount)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	if !ok {
		return 0, apperror.UserNotFound()
	}

	return recordTransaction(ctx, uow, userId, entity.CreditTransactionGrant, amount, serviceUsed, nil)
}

func recordTransaction(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, txType entity.CreditTransactionType, amount int, serviceUsed string, relatedId *uuid.UUID) (int, error) {
	balance, _, err := uow.UserRepository().GetCredits(ctx, userId)
	if err != nil {
		return 0, err
	}

	service := serviceUsed
	err = uow.CreditTransactionRepository().Create(ctx, &entity.CreditTransaction{
		UserId:          userId,
		TransactionType: txType,
		Amount:          amount,
		BalanceAfter:    balance,
		ServiceUsed:     &service,
		RelatedId:       relatedId,
	})
	if err != nil {
		return 0, fmt.Errorf("record credit transaction: %w", err)
	}
	return balance, nil
}

// ensureCredits is the pre-check before an expensive upstream call. The
// binding check is the conditional debit at commit.
func ensureCredits(ctx context.Context, uowFactory unitofwork.RepositoryFactory, userId uuid.UUID, amount int) error {
	if amount <= 0 {
		return nil
	}
	balance, found, err := uowFactory.NewUnitOfWork(ctx).UserRepository().GetCredits(ctx, userId)
	if err != nil {
		return err
	}
	if !found {
		return apperror.UserNotFound()
	}
	if balance < amount {
		return apperror.ErrInsufficientCredits
	}
	return nil
}

func publishCreditsAdjusted(ctx context.Context, publisher events.Publisher, userId uuid.UUID, action entity.CreditAction, amount, balance int, serviceUsed string) {
	if publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: events.CreditsAdjusted,
		Data: map[string]interface{}{
			"user_id": userId.String(),
			"action":  string(action),
			"amount":  amount,
			"balance": balance,
			"service": serviceUsed,
		},
		OccurredAt: time.Now(),
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.CreditsAdjusted, err)
	}
}
