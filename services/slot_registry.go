package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"counselcore/models"
)

// SlotRegistry arbitrates slot exclusivity. Reserve and Release run as
// conditional single-row updates inside the caller's transaction, so two
// concurrent reservation attempts on the same slot yield exactly one winner;
// the loser sees ErrSlotUnavailable without any partial write.
type SlotRegistry struct{}

func NewSlotRegistry() *SlotRegistry {
	return &SlotRegistry{}
}

// Reserve binds the slot to the session and flips availability in one
// compare-and-swap update.
func (r *SlotRegistry) Reserve(tx *gorm.DB, slotID, sessionID uuid.UUID) error {
	result := tx.Model(&models.SlotUnit{}).
		Where("id = ? AND is_available = ?", slotID, true).
		Updates(map[string]interface{}{
			"is_available":     false,
			"bound_session_id": sessionID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var slot models.SlotUnit
		if err := tx.First(&slot, "id = ?", slotID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("slot %s: %w", slotID, ErrNotFound)
			}
			return err
		}
		return fmt.Errorf("slot %s: %w", slotID, ErrSlotUnavailable)
	}
	return nil
}

// Release frees a bound slot so it can be booked again.
func (r *SlotRegistry) Release(tx *gorm.DB, slotID uuid.UUID) error {
	result := tx.Model(&models.SlotUnit{}).
		Where("id = ? AND bound_session_id IS NOT NULL", slotID).
		Updates(map[string]interface{}{
			"is_available":     true,
			"bound_session_id": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var slot models.SlotUnit
		if err := tx.First(&slot, "id = ?", slotID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("slot %s: %w", slotID, ErrNotFound)
			}
			return err
		}
		return fmt.Errorf("slot %s: %w", slotID, ErrSlotNotBound)
	}
	return nil
}
