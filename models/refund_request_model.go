package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RefundRequestPending  = "pending"
	RefundRequestApproved = "approved"
	RefundRequestRejected = "rejected"
)

// RefundRequest records one refund ask against a purchase. Requests are
// immutable once approved or rejected. At most one pending request may exist
// per purchase; the ledger enforces that, not the schema.
type RefundRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PurchaseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null" json:"requester_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Reason      string    `gorm:"type:text;not null" json:"reason"`
	Status      string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	ProcessorID    *uuid.UUID `gorm:"type:uuid" json:"processor_id,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ApprovedAmount *int64     `json:"approved_amount,omitempty"`
	AdminNote      *string    `gorm:"type:text" json:"admin_note,omitempty"`

	Purchase  PackagePurchase `gorm:"foreignkey:PurchaseID" json:"purchase,omitempty"`
	Requester User            `gorm:"foreignkey:RequesterID" json:"requester,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RefundRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
