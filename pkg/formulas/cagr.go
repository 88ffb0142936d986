package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// CalculateCAGR calculates Compound Annual Growth Rate between two prices
// separated by the given number of calendar days.
//
// Formula: CAGR = (Ending Value / Beginning Value)^(365 / days) - 1
//
// Returns:
//
//	CAGR as decimal (e.g., 0.11 = 11%) or nil if the inputs cannot produce one
func CalculateCAGR(startPrice, endPrice float64, days float64) *float64 {
	if startPrice <= 0 || endPrice <= 0 || days <= 0 {
		return nil
	}

	cagr := math.Pow(endPrice/startPrice, DaysPerYear/days) - 1
	if math.IsNaN(cagr) || math.IsInf(cagr, 0) {
		return nil
	}
	return &cagr
}

// RoundPercent rounds a percentage to two decimals and normalises negative zero.
func RoundPercent(v float64) float64 {
	r := scalar.Round(v, 2)
	if r == 0 {
		return 0
	}
	return r
}
