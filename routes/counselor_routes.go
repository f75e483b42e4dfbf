package routes

import (
	"github.com/gofiber/fiber/v2"

	"counselcore/handlers"
	"counselcore/middleware"
)

func CounselorRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	counselor := api.Group("/counselor", middleware.Protected(), middleware.CounselorRequired())

	profile := counselor.Group("/profile")
	profile.Put("/me", handlers.UpsertMyCounselorProfile)

	slots := counselor.Group("/slots")
	slots.Post("", handlers.CreateSlots)
	slots.Get("/me", handlers.GetMySlots)
	slots.Delete("/:slotId", handlers.DeleteSlot)

	sessions := counselor.Group("/sessions")
	sessions.Get("", handlers.GetCounselorSessions)
	sessions.Post("/:sessionId/confirm", handlers.ConfirmSession)
	sessions.Post("/:sessionId/complete", handlers.CompleteSession)
	sessions.Post("/:sessionId/reject", handlers.RejectSession)
	sessions.Post("/:sessionId/no-show", handlers.MarkSessionNoShow)
	sessions.Post("/:sessionId/note", handlers.SubmitCounselorSessionNote)

	counselor.Get("/earnings", handlers.GetMyEarnings)
}
