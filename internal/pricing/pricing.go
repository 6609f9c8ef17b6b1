// Package pricing computes line subtotals, cart totals and delivery fees.
// Everything here is pure; callers supply prices read from the catalog.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultFreeDeliveryThreshold is the cart total above which delivery is free.
var DefaultFreeDeliveryThreshold = decimal.NewFromInt(1000)

// Line is the minimal view of a cart line needed for totals.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Quote is a cart preview for one delivery option.
type Quote struct {
	CartTotal   decimal.Decimal
	DeliveryFee decimal.Decimal
	GrandTotal  decimal.Decimal
	FeeWaived   bool
}

// Resolver holds the configured free-delivery threshold.
type Resolver struct {
	threshold decimal.Decimal
}

// NewResolver parses the threshold; an empty value falls back to the default.
func NewResolver(threshold string) (Resolver, error) {
	if threshold == "" {
		return Resolver{threshold: DefaultFreeDeliveryThreshold}, nil
	}
	value, err := decimal.NewFromString(threshold)
	if err != nil {
		return Resolver{}, err
	}
	return Resolver{threshold: value}, nil
}

// Threshold returns the configured free-delivery threshold.
func (r Resolver) Threshold() decimal.Decimal {
	return r.threshold
}

// LineSubtotal is quantity times unit price.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// CartTotal sums line subtotals computed from the supplied unit prices.
func CartTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineSubtotal(line.Quantity, line.UnitPrice))
	}
	return total
}

// SumSubtotals adds already computed subtotals.
func SumSubtotals(subtotals []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, subtotal := range subtotals {
		total = total.Add(subtotal)
	}
	return total
}

// DeliveryFee returns the fee to charge. The fee is waived when the cart total
// is strictly greater than the threshold, whatever the delivery type.
func DeliveryFee(fee, cartTotal, threshold decimal.Decimal) decimal.Decimal {
	if cartTotal.GreaterThan(threshold) {
		return decimal.Zero
	}
	return fee
}

// GrandTotal is the amount recorded on a placed order.
func GrandTotal(cartTotal, fee decimal.Decimal) decimal.Decimal {
	return cartTotal.Add(fee)
}

// DeliveryFee applies the resolver's threshold.
func (r Resolver) DeliveryFee(fee, cartTotal decimal.Decimal) decimal.Decimal {
	return DeliveryFee(fee, cartTotal, r.threshold)
}

// Quote previews the totals for a delivery option with the given base fee.
func (r Resolver) Quote(cartTotal, baseFee decimal.Decimal) Quote {
	fee := r.DeliveryFee(baseFee, cartTotal)
	return Quote{
		CartTotal:   cartTotal,
		DeliveryFee: fee,
		GrandTotal:  GrandTotal(cartTotal, fee),
		FeeWaived:   baseFee.IsPositive() && fee.IsZero(),
	}
}
