package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselcore/models"
	"counselcore/services"
)

func TestRefundRequestSubmit(t *testing.T) {
	db := newTestDB(t)
	clock := newClock()
	ledger := services.NewRefundLedgerService(db, clock)
	fx := createPaidPurchase(t, db, clock, 2, 60000)

	request, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 30000, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestPending, request.Status)
	assert.Equal(t, int64(30000), request.Amount)

	t.Run("second pending request rejected", func(t *testing.T) {
		_, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 10000, "more")
		require.ErrorIs(t, err, services.ErrRequestAlreadyPending)
	})

	t.Run("only the purchaser may file", func(t *testing.T) {
		stranger := createUser(t, db, models.RoleClient)
		fx2 := createPaidPurchase(t, db, clock, 1, 30000)
		_, err := ledger.Submit(fx2.purchase.ID, stranger.ID, 10000, "not mine")
		require.Error(t, err)
	})

	t.Run("unpaid purchase has nothing to refund", func(t *testing.T) {
		client := createUser(t, db, models.RoleClient)
		counselor := createUser(t, db, models.RoleCounselor)
		slots := createSlots(t, db, counselor.ID, 1, baseTime.Add(200*time.Hour))
		unpaid, err := services.NewPurchaseService(db, clock).CreatePurchase(services.CreatePurchaseInput{
			ClientID:      client.ID,
			BeneficiaryID: client.ID,
			CounselorID:   counselor.ID,
			SessionType:   models.SessionTypeSingleConsult,
			TotalSessions: 1,
			OriginalFee:   30000,
			SlotIDs:       slotIDs(slots),
		})
		require.NoError(t, err)
		_, err = ledger.Submit(unpaid.ID, client.ID, 10000, "early")
		require.ErrorIs(t, err, services.ErrInvalidStateTransition)
	})

	t.Run("unknown purchase", func(t *testing.T) {
		_, err := ledger.Submit(uuid.New(), fx.client.ID, 10000, "ghost")
		require.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestRefundApprovalMovesMoney(t *testing.T) {
	db := newTestDB(t)
	clock := newClock()
	ledger := services.NewRefundLedgerService(db, clock)
	sessions := services.NewSessionService(db, clock)
	admin := createUser(t, db, models.RoleAdmin)

	// Three sessions at 90000 total; cancel the first two more than 24h out,
	// so 60000 is eligible in full.
	fx := createPaidPurchase(t, db, clock, 3, 90000)
	for _, s := range fx.sessions[:2] {
		_, err := sessions.Cancel(s.ID, fx.client.ID, "plans changed")
		require.NoError(t, err)
	}

	ceiling, err := ledger.Ceiling(fx.purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), ceiling)

	request, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 60000, "plans changed")
	require.NoError(t, err)

	t.Run("approval above the ceiling fails", func(t *testing.T) {
		_, err := ledger.Approve(request.ID, admin.ID, 60001, "too generous")
		require.ErrorIs(t, err, services.ErrRefundExceedsEligible)
	})

	approved, err := ledger.Approve(request.ID, admin.ID, 60000, "verified")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAmount)
	assert.Equal(t, int64(60000), *approved.ApprovedAmount)
	require.NotNil(t, approved.ProcessorID)
	assert.Equal(t, admin.ID, *approved.ProcessorID)

	purchase := reloadPurchase(t, db, fx.purchase.ID)
	assert.Equal(t, int64(60000), purchase.RefundAmount)
	assert.Equal(t, models.PurchaseStatusPartiallyRefunded, purchase.Status)

	t.Run("approving the same request twice never double-refunds", func(t *testing.T) {
		_, err := ledger.Approve(request.ID, admin.ID, 60000, "again")
		require.ErrorIs(t, err, services.ErrInvalidStateTransition)
		assert.Equal(t, int64(60000), reloadPurchase(t, db, fx.purchase.ID).RefundAmount)
	})

	t.Run("ceiling is spent", func(t *testing.T) {
		ceiling, err := ledger.Ceiling(fx.purchase.ID)
		require.NoError(t, err)
		assert.Zero(t, ceiling)
	})
}

func TestRefundApprovalPartialTierThenFull(t *testing.T) {
	db := newTestDB(t)
	clock := newClock()
	ledger := services.NewRefundLedgerService(db, clock)
	sessions := services.NewSessionService(db, clock)
	admin := createUser(t, db, models.RoleAdmin)

	fx := createPaidPurchase(t, db, clock, 2, 60000)

	// First session (+48h) cancelled 18h out: half of 30000.
	clock.Advance(30 * time.Hour)
	_, err := sessions.Cancel(fx.sessions[0].ID, fx.client.ID, "late cancel")
	require.NoError(t, err)

	// Second session (+72h) cancelled 42h out: full 30000.
	_, err = sessions.Cancel(fx.sessions[1].ID, fx.client.ID, "cancel everything")
	require.NoError(t, err)

	ceiling, err := ledger.Ceiling(fx.purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), ceiling)

	request, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 45000, "cancelled all sessions")
	require.NoError(t, err)
	_, err = ledger.Approve(request.ID, admin.ID, 45000, "per policy")
	require.NoError(t, err)

	// 45000 of 60000 is the whole refundable remainder only when nothing was
	// delivered; here nothing was, but 15000 of value was forfeited by the
	// late cancellation, so the purchase stays partially refunded.
	purchase := reloadPurchase(t, db, fx.purchase.ID)
	assert.Equal(t, models.PurchaseStatusPartiallyRefunded, purchase.Status)
	assert.Equal(t, int64(45000), purchase.RefundAmount)
}

func TestRefundToFullyRefundedStatus(t *testing.T) {
	db := newTestDB(t)
	clock := newClock()
	ledger := services.NewRefundLedgerService(db, clock)
	sessions := services.NewSessionService(db, clock)
	admin := createUser(t, db, models.RoleAdmin)

	fx := createPaidPurchase(t, db, clock, 1, 30000)
	_, err := sessions.Cancel(fx.sessions[0].ID, fx.client.ID, "full refund window")
	require.NoError(t, err)

	request, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 30000, "full refund")
	require.NoError(t, err)
	_, err = ledger.Approve(request.ID, admin.ID, 30000, "ok")
	require.NoError(t, err)

	purchase := reloadPurchase(t, db, fx.purchase.ID)
	assert.Equal(t, models.PurchaseStatusRefunded, purchase.Status)
	assert.Equal(t, purchase.FinalFee, purchase.RefundAmount)

	t.Run("a refunded purchase accepts no further requests", func(t *testing.T) {
		_, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 1, "more")
		require.ErrorIs(t, err, services.ErrInvalidStateTransition)
	})
}

func TestRefundReject(t *testing.T) {
	db := newTestDB(t)
	clock := newClock()
	ledger := services.NewRefundLedgerService(db, clock)
	admin := createUser(t, db, models.RoleAdmin)
	fx := createPaidPurchase(t, db, clock, 1, 30000)

	request, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 30000, "no reason")
	require.NoError(t, err)

	rejected, err := ledger.Reject(request.ID, admin.ID, "no eligible sessions")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRequestRejected, rejected.Status)

	// No money moved.
	assert.Zero(t, reloadPurchase(t, db, fx.purchase.ID).RefundAmount)

	t.Run("processed requests are immutable", func(t *testing.T) {
		_, err := ledger.Approve(request.ID, admin.ID, 30000, "flip flop")
		require.ErrorIs(t, err, services.ErrInvalidStateTransition)
		_, err = ledger.Reject(request.ID, admin.ID, "again")
		require.ErrorIs(t, err, services.ErrInvalidStateTransition)
	})

	t.Run("a rejected request unblocks a new submission", func(t *testing.T) {
		_, err := ledger.Submit(fx.purchase.ID, fx.client.ID, 10000, "retry")
		require.NoError(t, err)
	})
}
