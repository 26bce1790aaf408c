// Package models holds the GORM persistence models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the identity and timestamp columns every table carries.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
