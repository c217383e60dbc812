package services

import "math"

// Totals is the money snapshot for one checkout. The platform charges its
// fee on both sides of the trade: the buyer pays Total (subtotal plus fee)
// and the seller side is paid out SellerAmount (subtotal minus fee).
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	PlatformFee  float64 `json:"platform_fee"`
	SellerAmount float64 `json:"seller_amount"`
	Total        float64 `json:"total"`
}

// ComputeTotals sums the line-item price snapshots and applies the fee rate.
// The fee is rounded half-up to 2 places exactly once, on the final amount,
// never per line item. Empty input yields a zero Totals.
func ComputeTotals(lineItemPrices []float64, feeRatePercent float64) Totals {
	var subtotal float64
	for _, p := range lineItemPrices {
		subtotal += p
	}
	subtotal = round2(subtotal)
	fee := round2(subtotal * feeRatePercent / 100)
	return Totals{
		Subtotal:     subtotal,
		PlatformFee:  fee,
		SellerAmount: round2(subtotal - fee),
		Total:        round2(subtotal + fee),
	}
}

// round2 rounds half-up to 2 decimal places.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
