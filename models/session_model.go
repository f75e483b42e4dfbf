package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionStatusPendingPayment      = "pending_payment"
	SessionStatusPendingConfirmation = "pending_confirmation"
	SessionStatusConfirmed           = "confirmed"
	SessionStatusPendingSettlement   = "pending_settlement"
	SessionStatusSettlementCompleted = "settlement_completed"
	SessionStatusRejected            = "rejected"
	SessionStatusCancelled           = "cancelled"
	SessionStatusNoShow              = "no_show"
)

// SessionInstance is one scheduled, billable unit of service delivery, child
// of a PackagePurchase and bound to exactly one SlotUnit while alive.
// SessionNumber is 1-based and contiguous within the purchase. Price is the
// session's share of the purchase FinalFee in minor units; the split remainder
// sits on the last session so the prices always sum exactly to FinalFee.
//
// Completion and settlement eligibility are a single transition: a completed
// session is stored as pending_settlement with CompletedAt set.
type SessionInstance struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PurchaseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_session_no" json:"purchase_id"`
	SessionNumber int       `gorm:"not null;uniqueIndex:idx_purchase_session_no" json:"session_number"`
	SlotUnitID    uuid.UUID `gorm:"type:uuid;not null" json:"slot_unit_id"`

	ScheduledAt     time.Time `gorm:"not null" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Price           int64     `gorm:"not null" json:"price"`
	Status          string    `gorm:"size:25;not null;default:'pending_payment'" json:"status"`

	ClientNote    *string `gorm:"type:text" json:"client_note,omitempty"`
	CounselorNote *string `gorm:"type:text" json:"counselor_note,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`

	CancelledBy  *uuid.UUID `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelReason *string    `gorm:"type:text" json:"cancel_reason,omitempty"`

	// RefundableAmount is locked in from the tier policy at the moment the
	// session is cancelled or rejected. Zero for every other state.
	RefundableAmount int64 `gorm:"not null;default:0" json:"refundable_amount"`
	// PayoutAmount is the net counselor payout recorded at settlement.
	PayoutAmount int64 `gorm:"not null;default:0" json:"payout_amount"`

	Purchase PackagePurchase `gorm:"foreignkey:PurchaseID" json:"-"`
	SlotUnit SlotUnit        `gorm:"foreignkey:SlotUnitID" json:"slot_unit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SessionInstance) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Delivered reports whether the session was carried out; delivered sessions
// are never refundable.
func (s *SessionInstance) Delivered() bool {
	return s.Status == SessionStatusPendingSettlement || s.Status == SessionStatusSettlementCompleted
}

// Terminated reports whether the session ended without delivery.
func (s *SessionInstance) Terminated() bool {
	return s.Status == SessionStatusCancelled || s.Status == SessionStatusRejected || s.Status == SessionStatusNoShow
}

// ScheduledEnd is the scheduled finish time derived from the bound slot.
func (s *SessionInstance) ScheduledEnd() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
