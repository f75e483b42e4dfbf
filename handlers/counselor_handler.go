package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"counselcore/database"
	"counselcore/models"
)

type CounselorProfileRequest struct {
	Headline    string   `json:"headline" validate:"required"`
	Bio         string   `json:"bio" validate:"required"`
	Specialties []string `json:"specialties" validate:"required,min=1,dive,oneof=anxiety depression family couples adolescent career trauma addiction grief"`
}

func UpsertMyCounselorProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req CounselorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var specialties []*models.Specialty
	if err := database.DB.Where("name IN ?", req.Specialties).Find(&specialties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	var counselor models.Counselor
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&counselor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counselor = models.Counselor{UserID: userID, Status: "active"}
			if err := tx.Create(&counselor).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		counselor.Headline = &req.Headline
		counselor.Bio = &req.Bio
		if err := tx.Save(&counselor).Error; err != nil {
			return err
		}
		return tx.Model(&counselor).Association("Specialties").Replace(specialties)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save profile"})
	}

	database.DB.Preload("Specialties").Preload("User").First(&counselor, "user_id = ?", userID)
	return c.JSON(counselor)
}

func ListCounselors(c *fiber.Ctx) error {
	specialty := c.Query("specialty")

	query := database.DB.
		Preload("Specialties").
		Preload("User").
		Where("status = ?", "active")

	if specialty != "" {
		query = query.
			Joins("JOIN counselor_specialties cs on cs.counselor_user_id = counselors.user_id").
			Joins("JOIN specialties s on s.id = cs.specialty_id").
			Where("s.name = ?", specialty)
	}

	var counselors []models.Counselor
	query.Find(&counselors)
	return c.JSON(counselors)
}

func GetCounselorProfile(c *fiber.Ctx) error {
	counselorID := c.Params("counselorId")

	var counselor models.Counselor
	if err := database.DB.
		Preload("Specialties").
		Preload("User").
		First(&counselor, "user_id = ?", counselorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Counselor not found"})
	}
	return c.JSON(counselor)
}

func GetMyEarnings(c *fiber.Ctx) error {
	counselorID := currentUserID(c)

	var counselor models.Counselor
	if err := database.DB.First(&counselor, "user_id = ?", counselorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Counselor profile not found"})
	}

	var settledSessions int64
	database.DB.Model(&models.SessionInstance{}).
		Joins("JOIN package_purchases on session_instances.purchase_id = package_purchases.id").
		Where("package_purchases.counselor_id = ? AND session_instances.status = ?",
			counselorID, models.SessionStatusSettlementCompleted).
		Count(&settledSessions)

	return c.JSON(fiber.Map{
		"current_balance":  counselor.CurrentBalance,
		"settled_sessions": settledSessions,
	})
}

func ListSpecialties(c *fiber.Ctx) error {
	var specialties []models.Specialty
	database.DB.Order("name asc").Find(&specialties)
	return c.JSON(specialties)
}
