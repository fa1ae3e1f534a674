package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByRelatedID struct {
	RelatedID uuid.UUID
}

func (s ByRelatedID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("related_id = ?", s.RelatedID)
}

type ByServiceUsed struct {
	Service string
}

func (s ByServiceUsed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("service_used = ?", s.Service)
}
