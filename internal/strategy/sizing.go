package strategy

import (
	"math"
	"strconv"
)

// Notional converts an investment amount into the hedge notional. A
// multiplier of 1.0 hedges exactly the principal.
func Notional(amount, multiplier float64) float64 {
	return amount * multiplier
}

// ContractSize converts a hedge notional into an exchange lot count:
// round(notional / quanto multiplier), clamped to a minimum of one lot so
// a tiny notional never produces a zero-size order. The multiplier is
// parsed permissively; absent or malformed values degrade to 1.0. Mark
// price is accepted but not part of the formula, matching the exchange's
// USDT-margined contracts where one lot is quoted in settle currency; see
// ImpliedBaseQuantity for the base-asset view.
func ContractSize(notional float64, quantoMultiplier string, markPrice float64) int64 {
	_ = markPrice
	size := int64(math.Round(notional / parseMultiplier(quantoMultiplier)))
	if size == 0 {
		size = 1
	}
	return size
}

// ImpliedBaseQuantity is the hedge size expressed in the base asset at
// the current mark price. Shown to the operator alongside the lot count
// so the notional-vs-lot divergence is visible before confirmation.
func ImpliedBaseQuantity(notional, markPrice float64) float64 {
	if markPrice <= 0 {
		return 0
	}
	return notional / markPrice
}

func parseMultiplier(raw string) float64 {
	if raw == "" {
		return 1.0
	}
	multiplier, err := strconv.ParseFloat(raw, 64)
	if err != nil || multiplier <= 0 {
		return 1.0
	}
	return multiplier
}
