package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"counselcore/database"
	"counselcore/models"
)

func findSession(sessionID string) (*models.SessionInstance, error) {
	var session models.SessionInstance
	if err := database.DB.Preload("Purchase").First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func GetMySessions(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var sessions []models.SessionInstance
	database.DB.
		Joins("JOIN package_purchases on session_instances.purchase_id = package_purchases.id").
		Where("package_purchases.client_id = ? OR package_purchases.beneficiary_id = ?", clientID, clientID).
		Order("session_instances.scheduled_at desc").
		Preload("SlotUnit").
		Find(&sessions)

	return c.JSON(sessions)
}

func GetCounselorSessions(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var sessions []models.SessionInstance
	database.DB.
		Joins("JOIN package_purchases on session_instances.purchase_id = package_purchases.id").
		Where("package_purchases.counselor_id = ?", counselorID).
		Order("session_instances.scheduled_at desc").
		Preload("SlotUnit").
		Find(&sessions)

	return c.JSON(sessions)
}

func ConfirmSession(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.CounselorID != counselorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the counselor for this session"})
	}

	updated, err := sessionSvc.Confirm(session.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

type CompleteSessionRequest struct {
	Note string `json:"note" validate:"required,min=5"`
}

func CompleteSession(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var req CompleteSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.CounselorID != counselorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the counselor for this session"})
	}

	updated, err := sessionSvc.Complete(session.ID, req.Note)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Session completed and queued for settlement.",
		"session": updated,
	})
}

type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func CancelSession(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var req CancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.ClientID != clientID && session.Purchase.BeneficiaryID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your session"})
	}

	updated, err := sessionSvc.Cancel(session.ID, clientID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Session cancelled. Any refundable amount can now be claimed through a refund request.",
		"session": updated,
	})
}

type RejectSessionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func RejectSession(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var req RejectSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.CounselorID != counselorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the counselor for this session"})
	}

	updated, err := sessionSvc.Reject(session.ID, counselorID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

func MarkSessionNoShow(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.CounselorID != counselorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the counselor for this session"})
	}

	updated, err := sessionSvc.MarkNoShow(session.ID, counselorID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

type SessionNoteRequest struct {
	Note string `json:"note" validate:"required,min=5"`
}

func SubmitClientSessionNote(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var req SessionNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if session.Purchase.ClientID != clientID && session.Purchase.BeneficiaryID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your session"})
	}

	if err := sessionSvc.SetClientNote(session.ID, req.Note); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Note saved"})
}

func SubmitCounselorSessionNote(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var req SessionNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := findSession(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.Purchase.CounselorID != counselorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the counselor for this session"})
	}

	if err := sessionSvc.SetCounselorNote(session.ID, req.Note); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Note saved"})
}
