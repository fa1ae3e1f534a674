package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title             string         `gorm:"type:text;not null;default:''"`
	DatasetUrl        string         `gorm:"type:text;not null"`
	DatasetSummary    datatypes.JSON // NULL until summarized
	Goals             datatypes.JSON
	Visualizations    datatypes.JSON
	GoalRegenerations int            `gorm:"not null;default:0"`
	Version           int            `gorm:"not null;default:1"` // Optimistic concurrency token
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}
