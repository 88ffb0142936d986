package returns

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is the dd-mm-yyyy layout the NAV provider uses
const DefaultDateLayout = "02-01-2006"

// Normalize turns raw provider records into a PriceSeries.
//
// Records with an unparsable date, a non-numeric price or a non-positive price are
// dropped. The remainder is sorted by date; when several records share a date the
// one listed last in the input wins. An empty result is ErrNoData.
func Normalize(raw []RawPoint, layout string) (PriceSeries, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}

	parsed := make([]PricePoint, 0, len(raw))
	for _, r := range raw {
		date, err := time.Parse(layout, strings.TrimSpace(r.Date))
		if err != nil {
			continue
		}
		price, ok := parsePrice(r.NAV)
		if !ok {
			continue
		}
		parsed = append(parsed, PricePoint{Date: date.UTC(), Price: price})
	}

	if len(parsed) == 0 {
		return PriceSeries{}, ErrNoData
	}

	// Stable sort keeps input order within a date, so the last of each run wins
	slices.SortStableFunc(parsed, func(a, b PricePoint) int {
		return a.Date.Compare(b.Date)
	})

	points := make([]PricePoint, 0, len(parsed))
	for _, p := range parsed {
		if n := len(points); n > 0 && points[n-1].Date.Equal(p.Date) {
			points[n-1] = p
			continue
		}
		points = append(points, p)
	}

	return PriceSeries{points: points}, nil
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
