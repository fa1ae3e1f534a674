// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Credits   int
	HasAccess bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
