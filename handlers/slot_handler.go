package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"counselcore/database"
	"counselcore/models"
)

type CreateSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

type SlotInput struct {
	StartTime string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func CreateSlots(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var req CreateSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	created := make([]models.SlotUnit, 0, len(req.Slots))
	for _, in := range req.Slots {
		start, _ := time.Parse(time.RFC3339, in.StartTime)
		end, _ := time.Parse(time.RFC3339, in.EndTime)
		if !end.After(start) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Slot end time must be after start time"})
		}
		if start.Before(time.Now()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot publish a slot in the past"})
		}
		created = append(created, models.SlotUnit{
			CounselorID: counselorID,
			SlotDate:    start.Truncate(24 * time.Hour),
			StartTime:   start,
			EndTime:     end,
			IsAvailable: true,
		})
	}

	if err := database.DB.Create(&created).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to publish slots"})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func GetMySlots(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var slots []models.SlotUnit
	database.DB.
		Where("counselor_id = ?", counselorID).
		Order("start_time asc").
		Find(&slots)

	return c.JSON(slots)
}

func GetCounselorOpenSlots(c *fiber.Ctx) error {
	counselorID, err := uuid.Parse(c.Params("counselorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid counselor ID format"})
	}

	var slots []models.SlotUnit
	database.DB.
		Where("counselor_id = ? AND is_available = ? AND start_time > ?", counselorID, true, time.Now()).
		Order("start_time asc").
		Find(&slots)

	return c.JSON(slots)
}

func DeleteSlot(c *fiber.Ctx) error {
	counselorID := currentUserID(c)
	slotID := c.Params("slotId")

	result := database.DB.
		Where("id = ? AND counselor_id = ? AND bound_session_id IS NULL", slotID, counselorID).
		Delete(&models.SlotUnit{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete slot"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slot not found or already booked"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
