package formulas

import (
	"errors"
	"math"
	"time"
)

// XIRR solver parameters
const (
	XIRRGuess         = 0.1
	XIRRMaxIterations = 200
	XIRRTolerance     = 1e-8
	DaysPerYear       = 365.0
)

// ErrInvalidSchedule is returned when a cash-flow schedule cannot have a rate of return:
// fewer than two flows, or no sign change between outflows and inflows.
var ErrInvalidSchedule = errors.New("cash flow schedule must contain both outflows and inflows")

// CashFlow is a dated signed amount. Outflows (money invested) are negative,
// inflows (value realised) are positive.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// XIRRResult holds the solved annual rate and whether Newton's method converged.
// When Converged is false, Rate is the last finite estimate.
type XIRRResult struct {
	Rate       float64 `json:"rate"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// XIRR finds the annual rate r at which the net present value of the flows is zero.
//
// Formula: NPV(r) = Σ amount_i / (1 + r)^(days_i / 365)
// where days_i counts calendar days from the earliest flow.
//
// Newton-Raphson starting at XIRRGuess, stopping when successive estimates differ by
// less than XIRRTolerance. Iteration also stops early when the derivative vanishes or
// the next estimate is not finite; both cases return the current estimate unconverged.
func XIRR(flows []CashFlow) (XIRRResult, error) {
	if !hasSignChange(flows) {
		return XIRRResult{}, ErrInvalidSchedule
	}

	base := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.Before(base) {
			base = f.Date
		}
	}

	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = daysBetween(base, f.Date) / DaysPerYear
	}

	rate := XIRRGuess
	for i := 1; i <= XIRRMaxIterations; i++ {
		npv, dnpv := 0.0, 0.0
		for j, f := range flows {
			discount := math.Pow(1+rate, years[j])
			npv += f.Amount / discount
			dnpv -= years[j] * f.Amount / (discount * (1 + rate))
		}

		if dnpv == 0 || math.IsNaN(dnpv) {
			return XIRRResult{Rate: rate, Iterations: i}, nil
		}

		next := rate - npv/dnpv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return XIRRResult{Rate: rate, Iterations: i}, nil
		}

		if math.Abs(next-rate) < XIRRTolerance {
			return XIRRResult{Rate: next, Iterations: i, Converged: true}, nil
		}
		rate = next
	}

	return XIRRResult{Rate: rate, Iterations: XIRRMaxIterations}, nil
}

// NPV evaluates the net present value of flows at the given annual rate.
func NPV(flows []CashFlow, rate float64) float64 {
	if len(flows) == 0 {
		return 0
	}
	base := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.Before(base) {
			base = f.Date
		}
	}

	var npv float64
	for _, f := range flows {
		npv += f.Amount / math.Pow(1+rate, daysBetween(base, f.Date)/DaysPerYear)
	}
	return npv
}

func hasSignChange(flows []CashFlow) bool {
	if len(flows) < 2 {
		return false
	}
	var hasNeg, hasPos bool
	for _, f := range flows {
		if f.Amount < 0 {
			hasNeg = true
		} else if f.Amount > 0 {
			hasPos = true
		}
	}
	return hasNeg && hasPos
}

// daysBetween counts whole calendar days, immune to DST offsets.
func daysBetween(from, to time.Time) float64 {
	return math.Round(to.Sub(from).Hours() / 24)
}
