package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"counselcore/models"
	"counselcore/utils"
)

// PurchaseService owns the PackagePurchase money state machine:
// pending_payment -> paid -> {partially_refunded, refunded}.
type PurchaseService struct {
	db    *gorm.DB
	clock Clock
	slots *SlotRegistry
}

func NewPurchaseService(db *gorm.DB, clock Clock) *PurchaseService {
	return &PurchaseService{db: db, clock: clock, slots: NewSlotRegistry()}
}

type CreatePurchaseInput struct {
	ClientID            uuid.UUID
	BeneficiaryID       uuid.UUID
	CounselorID         uuid.UUID
	SessionType         string
	TotalSessions       int
	OriginalFee         int64
	DiscountRatePercent int
	SlotIDs             []uuid.UUID
}

// CreatePurchase creates the purchase and all of its session instances up
// front, reserving one slot per session. The whole creation is one
// transaction: losing any slot race aborts everything with ErrSlotUnavailable.
func (s *PurchaseService) CreatePurchase(in CreatePurchaseInput) (*models.PackagePurchase, error) {
	if in.TotalSessions < 1 {
		return nil, errors.New("total sessions must be at least 1")
	}
	if in.SessionType == models.SessionTypeSingleConsult && in.TotalSessions != 1 {
		return nil, errors.New("a single consultation covers exactly one session")
	}
	if in.DiscountRatePercent < 0 || in.DiscountRatePercent > 100 {
		return nil, errors.New("discount rate must be between 0 and 100")
	}
	if in.OriginalFee <= 0 {
		return nil, errors.New("original fee must be positive")
	}
	if len(in.SlotIDs) != in.TotalSessions {
		return nil, fmt.Errorf("expected %d slot selections, got %d", in.TotalSessions, len(in.SlotIDs))
	}
	seen := make(map[uuid.UUID]bool, len(in.SlotIDs))
	for _, id := range in.SlotIDs {
		if seen[id] {
			return nil, errors.New("duplicate slot selection")
		}
		seen[id] = true
	}

	now := s.clock.Now()
	finalFee := DeriveFinalFee(in.OriginalFee, in.DiscountRatePercent)
	prices := SplitSessionPrices(finalFee, in.TotalSessions)

	var purchase models.PackagePurchase
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var slotUnits []models.SlotUnit
		if err := tx.Where("id IN ?", in.SlotIDs).Find(&slotUnits).Error; err != nil {
			return err
		}
		if len(slotUnits) != len(in.SlotIDs) {
			return fmt.Errorf("one or more slots: %w", ErrNotFound)
		}
		for _, slot := range slotUnits {
			if slot.CounselorID != in.CounselorID {
				return errors.New("slot does not belong to the selected counselor")
			}
			if !slot.StartTime.After(now) {
				return errors.New("cannot book a slot that has already started")
			}
		}
		// Sessions are numbered chronologically.
		sort.Slice(slotUnits, func(i, j int) bool {
			return slotUnits[i].StartTime.Before(slotUnits[j].StartTime)
		})

		refCode, err := utils.GenerateUniqueReferenceCode(tx)
		if err != nil {
			return err
		}
		purchase = models.PackagePurchase{
			ReferenceCode:       refCode,
			ClientID:            in.ClientID,
			BeneficiaryID:       in.BeneficiaryID,
			CounselorID:         in.CounselorID,
			SessionType:         in.SessionType,
			TotalSessions:       in.TotalSessions,
			OriginalFee:         in.OriginalFee,
			DiscountRatePercent: in.DiscountRatePercent,
			FinalFee:            finalFee,
			Status:              models.PurchaseStatusPendingPayment,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		for i, slot := range slotUnits {
			session := models.SessionInstance{
				ID:              uuid.New(),
				PurchaseID:      purchase.ID,
				SessionNumber:   i + 1,
				SlotUnitID:      slot.ID,
				ScheduledAt:     slot.StartTime,
				DurationMinutes: int(slot.EndTime.Sub(slot.StartTime).Minutes()),
				Price:           prices[i],
				Status:          models.SessionStatusPendingPayment,
			}
			if err := s.slots.Reserve(tx, slot.ID, session.ID); err != nil {
				return err
			}
			if err := tx.Create(&session).Error; err != nil {
				return err
			}
			purchase.Sessions = append(purchase.Sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ConfirmPayment records a manual, human-attested payment (e.g. a matched
// bank transfer against the purchase reference code). Valid only from
// pending_payment; moves every child session to pending_confirmation.
func (s *PurchaseService) ConfirmPayment(purchaseID uuid.UUID) (*models.PackagePurchase, error) {
	now := s.clock.Now()
	var purchase models.PackagePurchase
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PackagePurchase{}).
			Where("id = ? AND status = ?", purchaseID, models.PurchaseStatusPendingPayment).
			Updates(map[string]interface{}{
				"status":  models.PurchaseStatusPaid,
				"paid_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&models.PackagePurchase{}, "id = ?", purchaseID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
				}
				return err
			}
			return fmt.Errorf("confirm payment: %w", ErrInvalidStateTransition)
		}

		if err := tx.Model(&models.SessionInstance{}).
			Where("purchase_id = ? AND status = ?", purchaseID, models.SessionStatusPendingPayment).
			Update("status", models.SessionStatusPendingConfirmation).Error; err != nil {
			return err
		}
		return tx.Preload("Sessions").First(&purchase, "id = ?", purchaseID).Error
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// applyRefund moves refund money on a purchase inside the caller's
// transaction. The ceiling is re-checked here, against the rows read in this
// same transaction, so two concurrent approvals cannot double-spend the same
// eligible amount: the refund_amount guard in the WHERE clause makes the
// second writer lose and surface ErrInvalidStateTransition.
func applyRefund(tx *gorm.DB, p *models.PackagePurchase, sessions []models.SessionInstance, amount int64, reason string, now time.Time) error {
	if !p.Refundable() {
		return fmt.Errorf("apply refund from %s: %w", p.Status, ErrInvalidStateTransition)
	}
	if amount <= 0 {
		return errors.New("refund amount must be positive")
	}
	if amount > RefundCeiling(p, sessions) {
		return fmt.Errorf("amount %d: %w", amount, ErrRefundExceedsEligible)
	}

	newRefunded := p.RefundAmount + amount
	status := models.PurchaseStatusPartiallyRefunded
	if newRefunded >= p.FinalFee-settledGross(sessions) {
		status = models.PurchaseStatusRefunded
	}

	result := tx.Model(&models.PackagePurchase{}).
		Where("id = ? AND refund_amount = ? AND status IN ?",
			p.ID, p.RefundAmount,
			[]string{models.PurchaseStatusPaid, models.PurchaseStatusPartiallyRefunded}).
		Updates(map[string]interface{}{
			"status":        status,
			"refund_amount": newRefunded,
			"refunded_at":   now,
			"refund_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("refund conflict on purchase %s: %w", p.ID, ErrInvalidStateTransition)
	}

	p.Status = status
	p.RefundAmount = newRefunded
	p.RefundedAt = &now
	p.RefundReason = &reason
	return nil
}

// applySettlement accumulates a settlement batch total onto the purchase.
// The payment status field is untouched; settlement completeness is derived
// per session and summarized by recomputeSummary.
func applySettlement(tx *gorm.DB, p *models.PackagePurchase, amount int64, note string) error {
	if !p.Refundable() {
		return fmt.Errorf("apply settlement from %s: %w", p.Status, ErrInvalidStateTransition)
	}
	newAmount := p.SettlementAmount + amount
	result := tx.Model(&models.PackagePurchase{}).
		Where("id = ? AND settlement_amount = ?", p.ID, p.SettlementAmount).
		Updates(map[string]interface{}{
			"settlement_amount": newAmount,
			"settlement_note":   note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("settlement conflict on purchase %s: %w", p.ID, ErrInvalidStateTransition)
	}
	p.SettlementAmount = newAmount
	p.SettlementNote = &note
	return nil
}

// settledGross sums the full (pre-commission) prices of delivered sessions.
func settledGross(sessions []models.SessionInstance) int64 {
	var total int64
	for _, s := range sessions {
		if s.Delivered() {
			total += s.Price
		}
	}
	return total
}

// recomputeSummary rederives the purchase-level summary from session-level
// truth after a child transition. Session state is authoritative; the
// purchase row only carries the derived settled-at stamp.
func recomputeSummary(tx *gorm.DB, purchaseID uuid.UUID, now time.Time) error {
	var purchase models.PackagePurchase
	if err := tx.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return err
	}
	var sessions []models.SessionInstance
	if err := tx.Where("purchase_id = ?", purchaseID).Find(&sessions).Error; err != nil {
		return err
	}

	delivered := 0
	allSettled := true
	for _, s := range sessions {
		if s.Terminated() {
			continue
		}
		if s.Status != models.SessionStatusSettlementCompleted {
			allSettled = false
		}
		delivered++
	}
	if delivered > 0 && allSettled && purchase.SettledAt == nil {
		return tx.Model(&models.PackagePurchase{}).
			Where("id = ?", purchase.ID).
			Update("settled_at", now).Error
	}
	return nil
}
