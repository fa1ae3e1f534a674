package model

import (
	"time"

	"github.com/google/uuid"
)

type AiCreditTransaction struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	TransactionType string     `gorm:"type:varchar(20);not null"`
	Amount          int        `gorm:"not null"`
	BalanceAfter    int        `gorm:"not null"`
	ServiceUsed     *string    `gorm:"type:text;index"`
	RelatedId       *uuid.UUID `gorm:"type:uuid"`
	Notes           *string    `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;not null"`
}

func (AiCreditTransaction) TableName() string {
	return "ai_credit_transactions"
}
