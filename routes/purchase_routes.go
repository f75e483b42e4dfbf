package routes

import (
	"github.com/gofiber/fiber/v2"

	"counselcore/handlers"
	"counselcore/middleware"
)

func PurchaseRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	purchases := api.Group("/purchases", middleware.Protected())
	purchases.Post("", handlers.CreatePurchase)
	purchases.Get("/me", handlers.GetMyPurchases)
	purchases.Get("/:purchaseId", handlers.GetPurchase)
	purchases.Get("/:purchaseId/refund-ceiling", handlers.GetPurchaseRefundCeiling)

	sessions := api.Group("/sessions", middleware.Protected())
	sessions.Get("/me", handlers.GetMySessions)
	sessions.Post("/:sessionId/cancel", handlers.CancelSession)
	sessions.Post("/:sessionId/note", handlers.SubmitClientSessionNote)
}
