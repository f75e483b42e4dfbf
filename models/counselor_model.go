package models

import (
	"time"

	"github.com/google/uuid"
)

type Counselor struct {
	UserID         uuid.UUID    `gorm:"type:uuid;primary_key" json:"user_id"`
	Headline       *string      `gorm:"size:255" json:"headline"`
	Bio            *string      `gorm:"type:text" json:"bio"`
	Status         string       `gorm:"size:20;not null;default:'active'" json:"status"`
	CurrentBalance int64        `gorm:"not null;default:0" json:"-"`
	Specialties    []*Specialty `gorm:"many2many:counselor_specialties;" json:"specialties"`
	User           User         `gorm:"foreignkey:UserID" json:"user"`
	CreatedAt      time.Time    `json:"-"`
	UpdatedAt      time.Time    `json:"-"`
}
