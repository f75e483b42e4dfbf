package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotUnit is one bookable calendar unit a counselor offers. A slot is bound
// to at most one live session at a time: IsAvailable must be false whenever
// BoundSessionID is set, and both fields only ever change inside the same
// transaction as the session transition that binds or frees the slot.
type SlotUnit struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CounselorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"counselor_id"`
	SlotDate       time.Time  `gorm:"not null" json:"slot_date"`
	StartTime      time.Time  `gorm:"not null" json:"start_time"`
	EndTime        time.Time  `gorm:"not null" json:"end_time"`
	IsAvailable    bool       `gorm:"not null;default:true" json:"is_available"`
	BoundSessionID *uuid.UUID `gorm:"type:uuid;unique" json:"bound_session_id,omitempty"`

	Counselor Counselor `gorm:"foreignkey:CounselorID;references:UserID" json:"counselor,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (s *SlotUnit) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
