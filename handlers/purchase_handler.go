package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"counselcore/database"
	"counselcore/models"
	"counselcore/services"
)

type CreatePurchaseRequest struct {
	BeneficiaryID       string   `json:"beneficiary_id" validate:"omitempty,uuid"`
	CounselorID         string   `json:"counselor_id" validate:"required,uuid"`
	SessionType         string   `json:"session_type" validate:"required,oneof=single_consult package"`
	TotalSessions       int      `json:"total_sessions" validate:"required,gte=1"`
	OriginalFee         int64    `json:"original_fee" validate:"required,gt=0"`
	DiscountRatePercent int      `json:"discount_rate_percent" validate:"gte=0,lte=100"`
	SlotIDs             []string `json:"slot_ids" validate:"required,min=1,dive,uuid"`
}

func CreatePurchase(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var req CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// The beneficiary defaults to the purchaser (booking for oneself).
	beneficiaryID := clientID
	if req.BeneficiaryID != "" {
		beneficiaryID, _ = uuid.Parse(req.BeneficiaryID)
	}
	counselorID, _ := uuid.Parse(req.CounselorID)
	slotIDs := make([]uuid.UUID, 0, len(req.SlotIDs))
	for _, raw := range req.SlotIDs {
		id, _ := uuid.Parse(raw)
		slotIDs = append(slotIDs, id)
	}

	purchase, err := purchaseSvc.CreatePurchase(services.CreatePurchaseInput{
		ClientID:            clientID,
		BeneficiaryID:       beneficiaryID,
		CounselorID:         counselorID,
		SessionType:         req.SessionType,
		TotalSessions:       req.TotalSessions,
		OriginalFee:         req.OriginalFee,
		DiscountRatePercent: req.DiscountRatePercent,
		SlotIDs:             slotIDs,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Purchase created. Transfer the final fee using the reference code to activate your sessions.",
		"purchase": purchase,
	})
}

func GetMyPurchases(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var purchases []models.PackagePurchase
	database.DB.
		Preload("Sessions").
		Preload("Counselor.User").
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Find(&purchases)

	return c.JSON(purchases)
}

func GetPurchase(c *fiber.Ctx) error {
	clientID := currentUserID(c)
	purchaseID := c.Params("purchaseId")

	var purchase models.PackagePurchase
	if err := database.DB.
		Preload("Sessions").
		Preload("Counselor.User").
		First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
	}
	if purchase.ClientID != clientID && purchase.BeneficiaryID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your purchase"})
	}

	return c.JSON(purchase)
}

func GetPurchaseRefundCeiling(c *fiber.Ctx) error {
	clientID := currentUserID(c)
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID format"})
	}

	var purchase models.PackagePurchase
	if err := database.DB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
	}
	if purchase.ClientID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your purchase"})
	}

	ceiling, err := refundSvc.Ceiling(purchaseID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"purchase_id": purchaseID, "refund_ceiling": ceiling})
}
