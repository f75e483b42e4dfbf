package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"counselcore/models"
)

// RefundLedgerService records refund asks and their processing. Requests are
// immutable once approved or rejected; approval re-checks the eligibility
// ceiling inside the transaction that moves the money.
type RefundLedgerService struct {
	db    *gorm.DB
	clock Clock
}

func NewRefundLedgerService(db *gorm.DB, clock Clock) *RefundLedgerService {
	return &RefundLedgerService{db: db, clock: clock}
}

// Submit files a refund request by the purchaser of a paid purchase. A
// purchase with a pending request does not accept a second submission.
func (s *RefundLedgerService) Submit(purchaseID, requesterID uuid.UUID, amount int64, reason string) (*models.RefundRequest, error) {
	if amount <= 0 {
		return nil, errors.New("refund amount must be positive")
	}
	var request models.RefundRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var purchase models.PackagePurchase
		if err := tx.First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
			}
			return err
		}
		if purchase.ClientID != requesterID {
			return errors.New("refund requests can only be filed by the purchaser")
		}
		if !purchase.Refundable() {
			return fmt.Errorf("submit refund request from %s: %w", purchase.Status, ErrInvalidStateTransition)
		}

		var pending int64
		if err := tx.Model(&models.RefundRequest{}).
			Where("purchase_id = ? AND status = ?", purchaseID, models.RefundRequestPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("purchase %s: %w", purchaseID, ErrRequestAlreadyPending)
		}

		request = models.RefundRequest{
			PurchaseID:  purchaseID,
			RequesterID: requesterID,
			Amount:      amount,
			Reason:      reason,
			Status:      models.RefundRequestPending,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Approve settles a pending request: the approved amount is validated against
// the live ceiling and applied to the purchase in the same transaction.
// Approving the same request twice fails with ErrInvalidStateTransition and
// never double-refunds.
func (s *RefundLedgerService) Approve(requestID, processorID uuid.UUID, approvedAmount int64, note string) (*models.RefundRequest, error) {
	now := s.clock.Now()
	var request models.RefundRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("refund request %s: %w", requestID, ErrNotFound)
			}
			return err
		}
		if request.Status != models.RefundRequestPending {
			return fmt.Errorf("approve from %s: %w", request.Status, ErrInvalidStateTransition)
		}

		var purchase models.PackagePurchase
		if err := tx.First(&purchase, "id = ?", request.PurchaseID).Error; err != nil {
			return err
		}
		var sessions []models.SessionInstance
		if err := tx.Where("purchase_id = ?", purchase.ID).Find(&sessions).Error; err != nil {
			return err
		}

		if err := applyRefund(tx, &purchase, sessions, approvedAmount, request.Reason, now); err != nil {
			return err
		}

		result := tx.Model(&models.RefundRequest{}).
			Where("id = ? AND status = ?", requestID, models.RefundRequestPending).
			Updates(map[string]interface{}{
				"status":          models.RefundRequestApproved,
				"processor_id":    processorID,
				"processed_at":    now,
				"approved_amount": approvedAmount,
				"admin_note":      note,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("approve: %w", ErrInvalidStateTransition)
		}
		return tx.First(&request, "id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Reject closes a pending request without moving money.
func (s *RefundLedgerService) Reject(requestID, processorID uuid.UUID, note string) (*models.RefundRequest, error) {
	now := s.clock.Now()
	var request models.RefundRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RefundRequest{}).
			Where("id = ? AND status = ?", requestID, models.RefundRequestPending).
			Updates(map[string]interface{}{
				"status":       models.RefundRequestRejected,
				"processor_id": processorID,
				"processed_at": now,
				"admin_note":   note,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&models.RefundRequest{}, "id = ?", requestID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("refund request %s: %w", requestID, ErrNotFound)
				}
				return err
			}
			return fmt.Errorf("reject processed request: %w", ErrInvalidStateTransition)
		}
		return tx.First(&request, "id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Ceiling exposes the live refund ceiling for a purchase, for the approving
// actor's benefit.
func (s *RefundLedgerService) Ceiling(purchaseID uuid.UUID) (int64, error) {
	var purchase models.PackagePurchase
	if err := s.db.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
		}
		return 0, err
	}
	var sessions []models.SessionInstance
	if err := s.db.Where("purchase_id = ?", purchaseID).Find(&sessions).Error; err != nil {
		return 0, err
	}
	return RefundCeiling(&purchase, sessions), nil
}
