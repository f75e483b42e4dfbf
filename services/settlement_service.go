package services

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"counselcore/models"
)

// SettlementService computes the counselor payout for delivered sessions.
// Each pending_settlement session of a paid or partially refunded purchase is
// paid out at its price minus the platform commission, marked
// settlement_completed, and credited to the counselor's balance. Per-session
// payouts always reconcile to the purchase-level settlement amount.
type SettlementService struct {
	db                *gorm.DB
	clock             Clock
	commissionPercent int
}

func NewSettlementService(db *gorm.DB, clock Clock, commissionPercent int) *SettlementService {
	return &SettlementService{db: db, clock: clock, commissionPercent: commissionPercent}
}

type SettlementResult struct {
	PurchaseID      uuid.UUID `json:"purchase_id"`
	SessionsSettled int       `json:"sessions_settled"`
	AmountSettled   int64     `json:"amount_settled"`
	FullySettled    bool      `json:"fully_settled"`
}

// Payout is the net counselor share of one session price, commission rounded
// to the minor unit once.
func (s *SettlementService) Payout(price int64) int64 {
	commission := decimal.NewFromInt(price).
		Mul(decimal.New(int64(s.commissionPercent), -2)).
		Round(0).IntPart()
	return price - commission
}

// SettlePurchase settles every settlement-eligible session of one purchase in
// a single batch transaction.
func (s *SettlementService) SettlePurchase(purchaseID uuid.UUID) (*SettlementResult, error) {
	now := s.clock.Now()
	result := &SettlementResult{PurchaseID: purchaseID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var purchase models.PackagePurchase
		if err := tx.First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
			}
			return err
		}
		if !purchase.Refundable() {
			return fmt.Errorf("settle purchase in %s: %w", purchase.Status, ErrInvalidStateTransition)
		}

		var eligible []models.SessionInstance
		if err := tx.Where("purchase_id = ? AND status = ?", purchaseID, models.SessionStatusPendingSettlement).
			Order("session_number").
			Find(&eligible).Error; err != nil {
			return err
		}
		if len(eligible) == 0 {
			return nil
		}

		var batchTotal int64
		for _, session := range eligible {
			payout := s.Payout(session.Price)
			res := tx.Model(&models.SessionInstance{}).
				Where("id = ? AND status = ?", session.ID, models.SessionStatusPendingSettlement).
				Updates(map[string]interface{}{
					"status":        models.SessionStatusSettlementCompleted,
					"settled_at":    now,
					"payout_amount": payout,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("settle session %s: %w", session.ID, ErrInvalidStateTransition)
			}
			if err := tx.Model(&models.Counselor{}).
				Where("user_id = ?", purchase.CounselorID).
				Update("current_balance", gorm.Expr("current_balance + ?", payout)).Error; err != nil {
				return err
			}
			batchTotal += payout
		}

		note := fmt.Sprintf("settled %d session(s) at %d%% commission", len(eligible), s.commissionPercent)
		if err := applySettlement(tx, &purchase, batchTotal, note); err != nil {
			return err
		}
		if err := recomputeSummary(tx, purchaseID, now); err != nil {
			return err
		}

		result.SessionsSettled = len(eligible)
		result.AmountSettled = batchTotal

		var refreshed models.PackagePurchase
		if err := tx.First(&refreshed, "id = ?", purchaseID).Error; err != nil {
			return err
		}
		result.FullySettled = refreshed.SettledAt != nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleBatch settles every purchase that currently has settlement-eligible
// sessions. Purchases in a non-settleable state are skipped, not fatal.
func (s *SettlementService) SettleBatch() ([]SettlementResult, error) {
	var purchaseIDs []uuid.UUID
	err := s.db.Model(&models.SessionInstance{}).
		Distinct("purchase_id").
		Where("status = ?", models.SessionStatusPendingSettlement).
		Pluck("purchase_id", &purchaseIDs).Error
	if err != nil {
		return nil, err
	}

	results := make([]SettlementResult, 0, len(purchaseIDs))
	for _, id := range purchaseIDs {
		res, err := s.SettlePurchase(id)
		if err != nil {
			log.Printf("🔥 Settlement skipped for purchase %s: %v", id, err)
			continue
		}
		if res.SessionsSettled > 0 {
			results = append(results, *res)
		}
	}
	return results, nil
}
