package dto

import (
	"time"

	"ai-dataviz-be/internal/entity"

	"github.com/google/uuid"
)

type CreditBalanceResponse struct {
	Credits int `json:"credits"`
}

type AdjustCreditsRequest struct {
	Action string `json:"action" validate:"required"`
	Amount int    `json:"amount"`
}

type ListTransactionsQuery struct {
	Service   string `query:"service"`
	RelatedId string `query:"relatedId"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
}

type CreditTransactionResponse struct {
	Id           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Amount       int        `json:"amount"`
	BalanceAfter int        `json:"balanceAfter"`
	Service      *string    `json:"service,omitempty"`
	RelatedId    *uuid.UUID `json:"relatedId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func ToCreditTransactionResponse(tx *entity.CreditTransaction) *CreditTransactionResponse {
	return &CreditTransactionResponse{
		Id:           tx.Id,
		Type:         string(tx.TransactionType),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Service:      tx.ServiceUsed,
		RelatedId:    tx.RelatedId,
		CreatedAt:    tx.CreatedAt,
	}
}
