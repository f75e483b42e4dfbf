package services

import (
	"time"

	"github.com/shopspring/decimal"

	"counselcore/models"
)

// Refund tier boundaries, measured as lead time before the scheduled start.
const (
	fullRefundLead = 24 * time.Hour
	halfRefundLead = 12 * time.Hour
)

// DeriveFinalFee applies the discount rate to the original fee and rounds to
// the minor unit once, at the point of deriving the stored field.
func DeriveFinalFee(originalFee int64, discountRatePercent int) int64 {
	if discountRatePercent <= 0 {
		return originalFee
	}
	rate := decimal.New(int64(100-discountRatePercent), -2)
	return decimal.NewFromInt(originalFee).Mul(rate).Round(0).IntPart()
}

// SplitSessionPrices divides finalFee across totalSessions in minor units.
// The integer-division remainder is assigned to the last session so the
// prices always sum exactly to finalFee.
func SplitSessionPrices(finalFee int64, totalSessions int) []int64 {
	n := int64(totalSessions)
	base := finalFee / n
	prices := make([]int64, totalSessions)
	for i := range prices {
		prices[i] = base
	}
	prices[totalSessions-1] += finalFee - base*n
	return prices
}

// RefundablePortion returns the refundable share of a session price under the
// tiered cancellation policy: 100% at 24h+ lead, 50% at 12h+, nothing inside
// 12h. The 50% share is rounded to the minor unit once.
func RefundablePortion(price int64, scheduledAt, now time.Time) int64 {
	lead := scheduledAt.Sub(now)
	switch {
	case lead >= fullRefundLead:
		return price
	case lead >= halfRefundLead:
		return decimal.NewFromInt(price).Mul(decimal.New(5, -1)).Round(0).IntPart()
	default:
		return 0
	}
}

// RefundCeiling computes the maximum amount currently eligible for refund on
// a purchase from session-level truth: the locked-in refundable amounts of
// cancelled and rejected sessions, minus what was already refunded, capped by
// finalFee minus refunds minus the gross price of delivered sessions.
// Delivered (pending_settlement / settlement_completed) sessions never
// contribute eligibility.
func RefundCeiling(p *models.PackagePurchase, sessions []models.SessionInstance) int64 {
	var eligible, grossSettled int64
	for _, s := range sessions {
		switch s.Status {
		case models.SessionStatusCancelled, models.SessionStatusRejected:
			eligible += s.RefundableAmount
		case models.SessionStatusPendingSettlement, models.SessionStatusSettlementCompleted:
			grossSettled += s.Price
		}
	}
	eligible -= p.RefundAmount

	limit := p.FinalFee - p.RefundAmount - grossSettled
	if eligible > limit {
		eligible = limit
	}
	if eligible < 0 {
		eligible = 0
	}
	return eligible
}
