package services_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"counselcore/models"
	"counselcore/services"
)

var testDBSeq atomic.Int64

// newTestDB opens an isolated in-memory database and migrates the lifecycle
// schema. The shared-cache DSN with a single pooled connection keeps every
// goroutine of a test on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Counselor{},
		&models.Specialty{},
		&models.CounselorSpecialty{},
		&models.SlotUnit{},
		&models.PackagePurchase{},
		&models.SessionInstance{},
		&models.RefundRequest{},
	))
	return db
}

// fakeClock is a settable clock so tests pin the cancellation tiers and
// completion guards to exact instants.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// baseTime is an arbitrary fixed reference instant for all fixtures.
var baseTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newClock() *fakeClock { return &fakeClock{now: baseTime} }

func createUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	user := models.User{
		FullName: "Test " + role,
		Email:    fmt.Sprintf("%s-%s@example.com", role, uuid.New().String()[:8]),
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	if role == models.RoleCounselor {
		require.NoError(t, db.Create(&models.Counselor{
			UserID: user.ID,
			Status: "active",
		}).Error)
	}
	return user
}

// createSlots makes n one-hour slots for the counselor, the first starting at
// firstStart and each subsequent one a day later.
func createSlots(t *testing.T, db *gorm.DB, counselorID uuid.UUID, n int, firstStart time.Time) []models.SlotUnit {
	t.Helper()
	slots := make([]models.SlotUnit, 0, n)
	for i := 0; i < n; i++ {
		start := firstStart.Add(time.Duration(i) * 24 * time.Hour)
		slot := models.SlotUnit{
			CounselorID: counselorID,
			SlotDate:    start.Truncate(24 * time.Hour),
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			IsAvailable: true,
		}
		require.NoError(t, db.Create(&slot).Error)
		slots = append(slots, slot)
	}
	return slots
}

func slotIDs(slots []models.SlotUnit) []uuid.UUID {
	ids := make([]uuid.UUID, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

func reloadPurchase(t *testing.T, db *gorm.DB, id uuid.UUID) models.PackagePurchase {
	t.Helper()
	var p models.PackagePurchase
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

func reloadSession(t *testing.T, db *gorm.DB, id uuid.UUID) models.SessionInstance {
	t.Helper()
	var s models.SessionInstance
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return s
}

func reloadSessions(t *testing.T, db *gorm.DB, purchaseID uuid.UUID) []models.SessionInstance {
	t.Helper()
	var sessions []models.SessionInstance
	require.NoError(t, db.Where("purchase_id = ?", purchaseID).
		Order("session_number").Find(&sessions).Error)
	return sessions
}

// paidFixture is a confirmed-paid purchase with its sessions pending
// confirmation, scheduled 48h, 72h, ... after baseTime.
type paidFixture struct {
	client    models.User
	counselor models.User
	purchase  models.PackagePurchase
	sessions  []models.SessionInstance
}

func createPaidPurchase(t *testing.T, db *gorm.DB, clock services.Clock, totalSessions int, originalFee int64) paidFixture {
	t.Helper()

	client := createUser(t, db, models.RoleClient)
	counselor := createUser(t, db, models.RoleCounselor)
	slots := createSlots(t, db, counselor.ID, totalSessions, baseTime.Add(48*time.Hour))

	sessionType := models.SessionTypePackage
	if totalSessions == 1 {
		sessionType = models.SessionTypeSingleConsult
	}

	svc := services.NewPurchaseService(db, clock)
	purchase, err := svc.CreatePurchase(services.CreatePurchaseInput{
		ClientID:      client.ID,
		BeneficiaryID: client.ID,
		CounselorID:   counselor.ID,
		SessionType:   sessionType,
		TotalSessions: totalSessions,
		OriginalFee:   originalFee,
		SlotIDs:       slotIDs(slots),
	})
	require.NoError(t, err)
	paid, err := svc.ConfirmPayment(purchase.ID)
	require.NoError(t, err)

	return paidFixture{
		client:    client,
		counselor: counselor,
		purchase:  *paid,
		sessions:  reloadSessions(t, db, paid.ID),
	}
}

func reloadSlot(t *testing.T, db *gorm.DB, id uuid.UUID) models.SlotUnit {
	t.Helper()
	var s models.SlotUnit
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return s
}
