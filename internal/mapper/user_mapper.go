package mapper

import (
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:        u.Id,
		Email:     u.Email,
		FullName:  u.FullName,
		Credits:   u.Credits,
		HasAccess: u.HasAccess,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:        u.Id,
		Email:     u.Email,
		FullName:  u.FullName,
		Credits:   u.Credits,
		HasAccess: u.HasAccess,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) CreditTransactionToModel(t *entity.CreditTransaction) *model.AiCreditTransaction {
	if t == nil {
		return nil
	}
	return &model.AiCreditTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
		ServiceUsed:     t.ServiceUsed,
		RelatedId:       t.RelatedId,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *UserMapper) CreditTransactionToEntity(t *model.AiCreditTransaction) *entity.CreditTransaction {
	if t == nil {
		return nil
	}
	return &entity.CreditTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		TransactionType: entity.CreditTransactionType(t.TransactionType),
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
		ServiceUsed:     t.ServiceUsed,
		RelatedId:       t.RelatedId,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}
