package entity

import (
	"time"

	"github.com/google/uuid"
)

type CreditAction string
type CreditTransactionType string

const (
	CreditActionDeduct CreditAction = "deduct"
	CreditActionAdd    CreditAction = "add"

	CreditTransactionGrant      CreditTransactionType = "grant"
	CreditTransactionSpend      CreditTransactionType = "spend"
	CreditTransactionRefund     CreditTransactionType = "refund"
	CreditTransactionAdjustment CreditTransactionType = "adjustment"
)

// Services charged through the ledger.
const (
	CreditServiceSession       = "session"
	CreditServiceVisualization = "visualization"
	CreditServiceManual        = "manual"
)

type CreditTransaction struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	TransactionType CreditTransactionType
	Amount          int
	BalanceAfter    int
	ServiceUsed     *string
	RelatedId       *uuid.UUID
	Notes           *string
	CreatedAt       time.Time
}
