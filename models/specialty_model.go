package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpecialtyNames is the closed set of valid specialty members. Counselor
// specialties are stored as rows joined through counselor_specialties, never
// as serialized text.
var SpecialtyNames = []string{
	"anxiety",
	"depression",
	"family",
	"couples",
	"adolescent",
	"career",
	"trauma",
	"addiction",
	"grief",
}

type Specialty struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"size:50;not null;unique" json:"name"`
}

func (s *Specialty) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CounselorSpecialty struct {
	CounselorUserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SpecialtyID     uuid.UUID `gorm:"type:uuid;primaryKey"`

	Counselor Counselor `gorm:"foreignKey:CounselorUserID"`
	Specialty Specialty `gorm:"foreignKey:SpecialtyID"`
}
