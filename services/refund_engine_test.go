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

func TestDeriveFinalFee(t *testing.T) {
	assert.Equal(t, int64(100000), services.DeriveFinalFee(100000, 0))
	assert.Equal(t, int64(90000), services.DeriveFinalFee(100000, 10))
	assert.Equal(t, int64(0), services.DeriveFinalFee(100000, 100))

	// 15% off 99999 is 84999.15, rounded half-up to the minor unit.
	assert.Equal(t, int64(84999), services.DeriveFinalFee(99999, 15))
	// 25% off 9999 is 7499.25.
	assert.Equal(t, int64(7499), services.DeriveFinalFee(9999, 25))
}

func TestSplitSessionPrices(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		prices := services.SplitSessionPrices(90000, 3)
		assert.Equal(t, []int64{30000, 30000, 30000}, prices)
	})

	t.Run("remainder lands on the last session", func(t *testing.T) {
		prices := services.SplitSessionPrices(100000, 3)
		assert.Equal(t, []int64{33333, 33333, 33334}, prices)
	})

	t.Run("single session takes everything", func(t *testing.T) {
		prices := services.SplitSessionPrices(55555, 1)
		assert.Equal(t, []int64{55555}, prices)
	})

	t.Run("prices always sum to the final fee", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 5, 7, 12} {
			for _, fee := range []int64{1, 999, 10000, 99991} {
				var sum int64
				for _, p := range services.SplitSessionPrices(fee, n) {
					sum += p
				}
				assert.Equal(t, fee, sum, "fee=%d n=%d", fee, n)
			}
		}
	})
}

func TestRefundablePortion(t *testing.T) {
	scheduled := baseTime.Add(72 * time.Hour)
	price := int64(30000)

	cases := []struct {
		name string
		lead time.Duration
		want int64
	}{
		{"30 hours out refunds in full", 30 * time.Hour, 30000},
		{"exactly 24 hours still full", 24 * time.Hour, 30000},
		{"just inside 24 hours drops to half", 24*time.Hour - time.Second, 15000},
		{"18 hours out refunds half", 18 * time.Hour, 15000},
		{"exactly 12 hours still half", 12 * time.Hour, 15000},
		{"just inside 12 hours refunds nothing", 12*time.Hour - time.Second, 0},
		{"10 hours out refunds nothing", 10 * time.Hour, 0},
		{"after the scheduled start refunds nothing", -time.Hour, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := scheduled.Add(-tc.lead)
			assert.Equal(t, tc.want, services.RefundablePortion(price, scheduled, now))
		})
	}

	t.Run("half tier rounds once", func(t *testing.T) {
		now := scheduled.Add(-18 * time.Hour)
		// 33333 / 2 = 16666.5, half-up.
		assert.Equal(t, int64(16667), services.RefundablePortion(33333, scheduled, now))
	})

	t.Run("never increases as time passes", func(t *testing.T) {
		prev := int64(30001)
		for lead := 48 * time.Hour; lead >= -time.Hour; lead -= 30 * time.Minute {
			got := services.RefundablePortion(price, scheduled, scheduled.Add(-lead))
			require.LessOrEqual(t, got, prev, "lead=%s", lead)
			prev = got
		}
	})
}

func TestRefundCeiling(t *testing.T) {
	purchase := func(refunded int64) *models.PackagePurchase {
		return &models.PackagePurchase{
			ID:           uuid.New(),
			FinalFee:     90000,
			RefundAmount: refunded,
			Status:       models.PurchaseStatusPaid,
		}
	}
	session := func(status string, price, refundable int64) models.SessionInstance {
		return models.SessionInstance{Status: status, Price: price, RefundableAmount: refundable}
	}

	t.Run("only cancelled and rejected sessions contribute", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusCancelled, 30000, 30000),
			session(models.SessionStatusRejected, 30000, 30000),
			session(models.SessionStatusConfirmed, 30000, 0),
		}
		assert.Equal(t, int64(60000), services.RefundCeiling(purchase(0), sessions))
	})

	t.Run("prior refunds reduce the ceiling", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusCancelled, 30000, 30000),
			session(models.SessionStatusCancelled, 30000, 15000),
		}
		assert.Equal(t, int64(15000), services.RefundCeiling(purchase(30000), sessions))
	})

	t.Run("delivered sessions cap what is left to refund", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusSettlementCompleted, 30000, 0),
			session(models.SessionStatusSettlementCompleted, 30000, 0),
			session(models.SessionStatusSettlementCompleted, 30000, 0),
		}
		assert.Equal(t, int64(0), services.RefundCeiling(purchase(0), sessions))
	})

	t.Run("pending settlement counts as delivered", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusPendingSettlement, 30000, 0),
			session(models.SessionStatusCancelled, 30000, 30000),
			session(models.SessionStatusCancelled, 30000, 30000),
		}
		assert.Equal(t, int64(60000), services.RefundCeiling(purchase(0), sessions))
	})

	t.Run("no-show sessions contribute nothing", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusNoShow, 30000, 0),
			session(models.SessionStatusCancelled, 30000, 15000),
		}
		assert.Equal(t, int64(15000), services.RefundCeiling(purchase(0), sessions))
	})

	t.Run("never negative", func(t *testing.T) {
		sessions := []models.SessionInstance{
			session(models.SessionStatusSettlementCompleted, 60000, 0),
			session(models.SessionStatusCancelled, 30000, 30000),
		}
		assert.Equal(t, int64(0), services.RefundCeiling(purchase(30000), sessions))
	})
}
