package routes

import (
	"github.com/gofiber/fiber/v2"

	"counselcore/handlers"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/specialties", handlers.ListSpecialties)
	api.Get("/counselors", handlers.ListCounselors)
	api.Get("/counselors/:counselorId", handlers.GetCounselorProfile)
	api.Get("/counselors/:counselorId/slots", handlers.GetCounselorOpenSlots)
}
