package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"counselcore/models"
)

// SessionService owns the per-session lifecycle state machine. Every
// transition is a conditional update guarded by the current status, so an
// attempt from an invalid source state fails with ErrInvalidStateTransition
// and writes nothing.
type SessionService struct {
	db    *gorm.DB
	clock Clock
	slots *SlotRegistry
}

func NewSessionService(db *gorm.DB, clock Clock) *SessionService {
	return &SessionService{db: db, clock: clock, slots: NewSlotRegistry()}
}

func (s *SessionService) get(tx *gorm.DB, sessionID uuid.UUID) (*models.SessionInstance, error) {
	var session models.SessionInstance
	if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}
	return &session, nil
}

// Confirm is the counselor-side acknowledgment of a paid session:
// pending_confirmation -> confirmed.
func (s *SessionService) Confirm(sessionID uuid.UUID) (*models.SessionInstance, error) {
	now := s.clock.Now()
	var session *models.SessionInstance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SessionInstance{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusPendingConfirmation).
			Updates(map[string]interface{}{
				"status":       models.SessionStatusConfirmed,
				"confirmed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			current, err := s.get(tx, sessionID)
			if err != nil {
				return err
			}
			return fmt.Errorf("confirm from %s: %w", current.Status, ErrInvalidStateTransition)
		}
		var err error
		session, err = s.get(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Complete marks a delivered session. Completion and settlement eligibility
// are one atomic transition: confirmed -> pending_settlement, with
// CompletedAt recording the delivery. Irreversible.
func (s *SessionService) Complete(sessionID uuid.UUID, note string) (*models.SessionInstance, error) {
	now := s.clock.Now()
	var session *models.SessionInstance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionStatusConfirmed {
			return fmt.Errorf("complete from %s: %w", current.Status, ErrInvalidStateTransition)
		}
		if now.Before(current.ScheduledEnd()) {
			return fmt.Errorf("complete before scheduled end: %w", ErrInvalidStateTransition)
		}

		result := tx.Model(&models.SessionInstance{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusConfirmed).
			Updates(map[string]interface{}{
				"status":         models.SessionStatusPendingSettlement,
				"completed_at":   now,
				"counselor_note": note,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("complete: %w", ErrInvalidStateTransition)
		}
		if err := recomputeSummary(tx, current.PurchaseID, now); err != nil {
			return err
		}
		session, err = s.get(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Cancel terminates a not-yet-delivered session. The session transition and
// the slot release commit together; the tier policy locks the session's
// refundable amount at this instant and the parent summary is recomputed.
func (s *SessionService) Cancel(sessionID, actorID uuid.UUID, reason string) (*models.SessionInstance, error) {
	now := s.clock.Now()
	var session *models.SessionInstance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionStatusPendingConfirmation && current.Status != models.SessionStatusConfirmed {
			return fmt.Errorf("cancel from %s: %w", current.Status, ErrInvalidStateTransition)
		}

		refundable := RefundablePortion(current.Price, current.ScheduledAt, now)
		result := tx.Model(&models.SessionInstance{}).
			Where("id = ? AND status IN ?", sessionID,
				[]string{models.SessionStatusPendingConfirmation, models.SessionStatusConfirmed}).
			Updates(map[string]interface{}{
				"status":            models.SessionStatusCancelled,
				"cancelled_at":      now,
				"cancelled_by":      actorID,
				"cancel_reason":     reason,
				"refundable_amount": refundable,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cancel: %w", ErrInvalidStateTransition)
		}

		if err := s.slots.Release(tx, current.SlotUnitID); err != nil {
			return err
		}
		if err := recomputeSummary(tx, current.PurchaseID, now); err != nil {
			return err
		}
		session, err = s.get(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Reject is the counselor declining a session before confirming it. Distinct
// from Cancel for audit purposes; because the provider initiated it, the full
// session price stays refundable regardless of lead time.
func (s *SessionService) Reject(sessionID, actorID uuid.UUID, reason string) (*models.SessionInstance, error) {
	now := s.clock.Now()
	var session *models.SessionInstance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionStatusPendingConfirmation {
			return fmt.Errorf("reject from %s: %w", current.Status, ErrInvalidStateTransition)
		}

		result := tx.Model(&models.SessionInstance{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusPendingConfirmation).
			Updates(map[string]interface{}{
				"status":            models.SessionStatusRejected,
				"cancelled_at":      now,
				"cancelled_by":      actorID,
				"cancel_reason":     reason,
				"refundable_amount": current.Price,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("reject: %w", ErrInvalidStateTransition)
		}

		if err := s.slots.Release(tx, current.SlotUnitID); err != nil {
			return err
		}
		if err := recomputeSummary(tx, current.PurchaseID, now); err != nil {
			return err
		}
		session, err = s.get(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// MarkNoShow commits the computed no-show state. Only an explicit actor
// action lands here; nothing auto-transitions on a timer. Valid once a
// confirmed session's scheduled start has passed. No-show sessions are
// neither refundable nor settleable.
func (s *SessionService) MarkNoShow(sessionID, actorID uuid.UUID) (*models.SessionInstance, error) {
	now := s.clock.Now()
	var session *models.SessionInstance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, sessionID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionStatusConfirmed {
			return fmt.Errorf("mark no-show from %s: %w", current.Status, ErrInvalidStateTransition)
		}
		if !now.After(current.ScheduledAt) {
			return fmt.Errorf("mark no-show before scheduled time: %w", ErrInvalidStateTransition)
		}

		result := tx.Model(&models.SessionInstance{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusConfirmed).
			Updates(map[string]interface{}{
				"status":       models.SessionStatusNoShow,
				"cancelled_at": now,
				"cancelled_by": actorID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("mark no-show: %w", ErrInvalidStateTransition)
		}
		if err := recomputeSummary(tx, current.PurchaseID, now); err != nil {
			return err
		}
		session, err = s.get(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetClientNote attaches the client's free-text note to a session.
func (s *SessionService) SetClientNote(sessionID uuid.UUID, note string) error {
	return s.setNote(sessionID, "client_note", note)
}

// SetCounselorNote attaches the counselor's free-text note to a session.
func (s *SessionService) SetCounselorNote(sessionID uuid.UUID, note string) error {
	return s.setNote(sessionID, "counselor_note", note)
}

func (s *SessionService) setNote(sessionID uuid.UUID, column, note string) error {
	result := s.db.Model(&models.SessionInstance{}).
		Where("id = ? AND status <> ?", sessionID, models.SessionStatusPendingPayment).
		Update(column, note)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := s.db.First(&models.SessionInstance{}, "id = ?", sessionID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
			}
			return err
		}
		return fmt.Errorf("note on unpaid session: %w", ErrInvalidStateTransition)
	}
	return nil
}
