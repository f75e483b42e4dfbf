package routes

import (
	"github.com/gofiber/fiber/v2"

	"counselcore/handlers"
	"counselcore/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/payments/pending", handlers.ListPendingPayments)
	admin.Post("/purchases/:purchaseId/confirm-payment", handlers.ConfirmPurchasePayment)
	admin.Get("/purchases", handlers.AdminGetPurchases)

	admin.Get("/refund-requests", handlers.ListPendingRefundRequests)
	admin.Post("/refund-requests/:requestId/process", handlers.ProcessRefundRequestHandler)

	admin.Post("/settlements/:purchaseId/run", handlers.RunPurchaseSettlement)
	admin.Post("/settlements/run-batch", handlers.RunSettlementBatch)

	admin.Get("/sessions/overdue", handlers.ListOverdueSessions)
	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)
}
