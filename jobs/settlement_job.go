package jobs

import (
	"log"

	config "counselcore/configs"
	"counselcore/database"
	"counselcore/services"
)

// RunSettlementSweep settles every purchase that has sessions waiting for
// payout. Purchases touched by an unresolved refund request are skipped by
// the service and picked up on a later sweep.
func RunSettlementSweep() {
	log.Println("Running job: RunSettlementSweep...")

	svc := services.NewSettlementService(
		database.DB,
		services.SystemClock{},
		config.ConfigInt("PLATFORM_COMMISSION_PERCENT", 15),
	)

	results, err := svc.SettleBatch()
	if err != nil {
		log.Printf("🔥 Settlement sweep failed: %v", err)
		return
	}
	if len(results) == 0 {
		log.Println("No purchases ready for settlement.")
		return
	}

	var sessions int
	var payout int64
	for _, r := range results {
		sessions += r.SessionsSettled
		payout += r.AmountSettled
	}
	log.Printf("✅ Settlement sweep: %d purchase(s), %d session(s), payout %d minor units.",
		len(results), sessions, payout)
}
