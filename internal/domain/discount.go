package domain

import "github.com/shopspring/decimal"

// Tier is the loyalty level derived from a customer's order history.
// It drives the checkout discount and is mirrored into the customer's
// session token as the customerType claim.
type Tier string

const (
	TierRegular  Tier = "REGULAR"
	TierPremium  Tier = "PREMIUM"
	TierPlatinum Tier = "PLATINUM"
	TierVIP      Tier = "VIP"
)

func (t Tier) String() string {
	return string(t)
}

// TierFor maps the number of orders a customer placed before the one being
// priced to a tier and its discount rate.
func TierFor(pastOrderCount int) (Tier, decimal.Decimal) {
	switch {
	case pastOrderCount >= 5:
		return TierVIP, decimal.NewFromFloat(0.30)
	case pastOrderCount >= 3:
		return TierPlatinum, decimal.NewFromFloat(0.20)
	case pastOrderCount >= 1:
		return TierPremium, decimal.NewFromFloat(0.10)
	default:
		return TierRegular, decimal.Zero
	}
}

// DiscountedTotal applies the rate to the undiscounted subtotal.
// Rounding happens exactly once, on the final amount: 2 decimal
// places, half-up.
func DiscountedTotal(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(1).Sub(rate)).Round(2)
}
