package service

import (
	"context"

	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/repository/specification"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"

	"github.com/google/uuid"
)

type ICreditService interface {
	GetBalance(ctx context.Context, userId uuid.UUID) (*dto.CreditBalanceResponse, error)
	Adjust(ctx context.Context, userId uuid.UUID, req *dto.AdjustCreditsRequest) (*dto.CreditBalanceResponse, error)
	ListTransactions(ctx context.Context, userId uuid.UUID, query *dto.ListTransactionsQuery) ([]*dto.CreditTransactionResponse, error)
}

type creditService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewCreditService(uowFactory unitofwork.RepositoryFactory, eventPublisher events.Publisher, log logger.ILogger) ICreditService {
	return &creditService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *creditService) GetBalance(ctx context.Context, userId uuid.UUID) (*dto.CreditBalanceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	credits, found, err := uow.UserRepository().GetCredits(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.UserNotFound()
	}
	return &dto.CreditBalanceResponse{Credits: credits}, nil
}

func (s *creditService) Adjust(ctx context.Context, userId uuid.UUID, req *dto.AdjustCreditsRequest) (*dto.CreditBalanceResponse, error) {
	action := entity.CreditAction(req.Action)
	if (action != entity.CreditActionDeduct && action != entity.CreditActionAdd) || req.Amount <= 0 {
		return nil, apperror.ErrInvalidAction
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	var (
		balance int
		err     error
	)
	if action == entity.CreditActionDeduct {
		balance, err = debitCredits(ctx, uow, userId, req.Amount, entity.CreditServiceManual, nil)
	} else {
		balance, err = creditCredits(ctx, uow, userId, req.Amount, entity.CreditServiceManual)
	}
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("CREDITS", "Credits adjusted", map[string]interface{}{
		"user_id": userId.String(),
		"action":  req.Action,
		"amount":  req.Amount,
		"balance": balance,
	})
	publishCreditsAdjusted(ctx, s.eventPublisher, userId, action, req.Amount, balance, entity.CreditServiceManual)

	return &dto.CreditBalanceResponse{Credits: balance}, nil
}

const defaultTransactionPageSize = 50

// ListTransactions returns the caller's ledger, newest first.
func (s *creditService) ListTransactions(ctx context.Context, userId uuid.UUID, query *dto.ListTransactionsQuery) ([]*dto.CreditTransactionResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
	}
	if query.Service != "" {
		specs = append(specs, specification.ByServiceUsed{Service: query.Service})
	}
	if query.RelatedId != "" {
		relatedId, err := uuid.Parse(query.RelatedId)
		if err != nil {
			return nil, apperror.Validation("relatedId must be a uuid")
		}
		specs = append(specs, specification.ByRelatedID{RelatedID: relatedId})
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: query.Offset},
	)

	txs, err := s.uowFactory.NewUnitOfWork(ctx).CreditTransactionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.CreditTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, dto.ToCreditTransactionResponse(tx))
	}
	return res, nil
}
