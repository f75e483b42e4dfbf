package jobs

import (
	"log"
	"time"

	"counselcore/database"
	"counselcore/models"
)

// ReportOverdueSessions logs confirmed sessions whose scheduled window ended
// without either side reporting an outcome. It only reports; completion and
// no-show remain explicit counselor or admin actions.
func ReportOverdueSessions() {
	log.Println("Running job: ReportOverdueSessions...")

	cutoff := time.Now().Add(-15 * time.Minute)

	var overdue []models.SessionInstance
	err := database.DB.
		Where("status = ? AND scheduled_at + (duration_minutes * interval '1 minute') < ?",
			models.SessionStatusConfirmed, cutoff).
		Order("scheduled_at").
		Find(&overdue).Error
	if err != nil {
		log.Printf("Error checking for overdue sessions: %v", err)
		return
	}

	if len(overdue) == 0 {
		log.Println("No overdue sessions found.")
		return
	}

	for _, session := range overdue {
		log.Printf("Overdue session %s (purchase %s, session %d) ended %s without an outcome.",
			session.ID, session.PurchaseID, session.SessionNumber,
			session.ScheduledEnd().Format(time.RFC3339))
	}
	log.Printf("Found %d overdue session(s) awaiting an outcome report.", len(overdue))
}
