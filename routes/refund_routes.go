package routes

import (
	"github.com/gofiber/fiber/v2"

	"counselcore/handlers"
	"counselcore/middleware"
)

func RefundRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	refunds := api.Group("/refund-requests", middleware.Protected())
	refunds.Post("", handlers.SubmitRefundRequestHandler)
	refunds.Get("/me", handlers.GetMyRefundRequests)
}
