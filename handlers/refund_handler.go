package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"counselcore/database"
	"counselcore/models"
)

type SubmitRefundRequest struct {
	PurchaseID string `json:"purchase_id" validate:"required,uuid"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"required"`
}

func SubmitRefundRequestHandler(c *fiber.Ctx) error {
	requesterID := currentUserID(c)

	var req SubmitRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	purchaseID, _ := uuid.Parse(req.PurchaseID)

	request, err := refundSvc.Submit(purchaseID, requesterID, req.Amount, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Refund request submitted successfully. An admin will review it shortly.",
		"request": request,
	})
}

func GetMyRefundRequests(c *fiber.Ctx) error {
	requesterID := currentUserID(c)

	var requests []models.RefundRequest
	database.DB.
		Where("requester_id = ?", requesterID).
		Order("created_at desc").
		Find(&requests)

	return c.JSON(requests)
}

func ListPendingRefundRequests(c *fiber.Ctx) error {
	var requests []models.RefundRequest
	database.DB.
		Preload("Purchase").
		Preload("Requester").
		Where("status = ?", models.RefundRequestPending).
		Order("created_at asc").
		Find(&requests)

	return c.JSON(requests)
}

type ProcessRefundRequest struct {
	Decision       string `json:"decision" validate:"required,oneof=approve reject"`
	ApprovedAmount int64  `json:"approved_amount" validate:"gte=0"`
	AdminNote      string `json:"admin_note"`
}

func ProcessRefundRequestHandler(c *fiber.Ctx) error {
	processorID := currentUserID(c)
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID format"})
	}

	var req ProcessRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Decision == "approve" {
		request, err := refundSvc.Approve(requestID, processorID, req.ApprovedAmount, req.AdminNote)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Refund approved and applied.", "request": request})
	}

	request, err := refundSvc.Reject(requestID, processorID, req.AdminNote)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Refund request rejected.", "request": request})
}
