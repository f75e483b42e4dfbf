package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	config "counselcore/configs"
	"counselcore/database"
	"counselcore/services"
)

var validate = validator.New()

var (
	purchaseSvc   *services.PurchaseService
	sessionSvc    *services.SessionService
	refundSvc     *services.RefundLedgerService
	settlementSvc *services.SettlementService
)

// InitServices wires the lifecycle services against the connected database.
// Must run after database.ConnectDB.
func InitServices() {
	clock := services.SystemClock{}
	purchaseSvc = services.NewPurchaseService(database.DB, clock)
	sessionSvc = services.NewSessionService(database.DB, clock)
	refundSvc = services.NewRefundLedgerService(database.DB, clock)
	settlementSvc = services.NewSettlementService(
		database.DB, clock, config.ConfigInt("PLATFORM_COMMISSION_PERCENT", 15))
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	return userID
}

// serviceError maps the lifecycle error taxonomy onto HTTP statuses. Unknown
// errors are treated as caller mistakes, matching the validation-style
// failures the services return as plain errors.
func serviceError(c *fiber.Ctx, err error) error {
	code := fiber.StatusBadRequest
	switch {
	case errors.Is(err, services.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrSlotUnavailable),
		errors.Is(err, services.ErrSlotNotBound),
		errors.Is(err, services.ErrRequestAlreadyPending):
		code = fiber.StatusConflict
	case errors.Is(err, services.ErrRefundExceedsEligible):
		code = fiber.StatusUnprocessableEntity
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
