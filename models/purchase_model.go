package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchaseStatusPendingPayment    = "pending_payment"
	PurchaseStatusPaid              = "paid"
	PurchaseStatusPartiallyRefunded = "partially_refunded"
	PurchaseStatusRefunded          = "refunded"
)

const (
	SessionTypeSingleConsult = "single_consult"
	SessionTypePackage       = "package"
)

// PackagePurchase is one payment transaction covering TotalSessions sessions.
// All money fields are integer minor units. FinalFee is derived once at
// creation and never changes after payment confirmation. Rows are never
// deleted; this is a financial record.
type PackagePurchase struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferenceCode string    `gorm:"size:12;not null;unique" json:"reference_code"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	BeneficiaryID uuid.UUID `gorm:"type:uuid;not null" json:"beneficiary_id"`
	CounselorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"counselor_id"`

	SessionType         string `gorm:"size:20;not null" json:"session_type"`
	TotalSessions       int    `gorm:"not null" json:"total_sessions"`
	OriginalFee         int64  `gorm:"not null" json:"original_fee"`
	DiscountRatePercent int    `gorm:"not null;default:0" json:"discount_rate_percent"`
	FinalFee            int64  `gorm:"not null" json:"final_fee"`

	Status string     `gorm:"size:20;not null;default:'pending_payment'" json:"status"`
	PaidAt *time.Time `json:"paid_at,omitempty"`

	RefundAmount int64      `gorm:"not null;default:0" json:"refund_amount"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	RefundReason *string    `gorm:"type:text" json:"refund_reason,omitempty"`

	SettlementAmount int64      `gorm:"not null;default:0" json:"settlement_amount"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
	SettlementNote   *string    `gorm:"type:text" json:"settlement_note,omitempty"`

	Client      User              `gorm:"foreignkey:ClientID" json:"client,omitempty"`
	Beneficiary User              `gorm:"foreignkey:BeneficiaryID" json:"beneficiary,omitempty"`
	Counselor   Counselor         `gorm:"foreignkey:CounselorID;references:UserID" json:"counselor,omitempty"`
	Sessions    []SessionInstance `gorm:"foreignkey:PurchaseID" json:"sessions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PackagePurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Refundable reports whether the purchase is in a state that still accepts
// refund processing.
func (p *PackagePurchase) Refundable() bool {
	return p.Status == PurchaseStatusPaid || p.Status == PurchaseStatusPartiallyRefunded
}
