package returns

import "math"

// SplitFactors are the unit-restructuring ratios that are recognised
var SplitFactors = []float64{2, 5, 10, 50, 100}

// SplitTolerance is the relative distance from a factor still treated as a split
const SplitTolerance = 0.05

// AdjustSplits removes unit-restructuring discontinuities from a series.
//
// Walking left to right, when the ratio of the prior price to the current one is
// within SplitTolerance of a SplitFactor, every price from the current point onward
// is multiplied by that factor. Adjustments compound. Only price drops are detected,
// so reverse splits pass through unchanged.
//
// The input series is not modified.
func AdjustSplits(series PriceSeries) (PriceSeries, []SplitEvent) {
	src := series.points
	if len(src) == 0 {
		return PriceSeries{}, nil
	}

	out := make([]PricePoint, len(src))
	out[0] = src[0]

	var events []SplitEvent
	scale := 1.0
	for i := 1; i < len(src); i++ {
		ratio := src[i-1].Price / src[i].Price
		if factor, ok := matchSplitFactor(ratio); ok {
			scale *= factor
			events = append(events, SplitEvent{
				Date:   src[i].Date,
				Ratio:  ratio,
				Factor: factor,
			})
		}
		out[i] = PricePoint{Date: src[i].Date, Price: src[i].Price * scale}
	}

	return PriceSeries{points: out}, events
}

func matchSplitFactor(ratio float64) (float64, bool) {
	for _, f := range SplitFactors {
		if math.Abs(ratio-f)/f <= SplitTolerance {
			return f, true
		}
	}
	return 0, false
}
