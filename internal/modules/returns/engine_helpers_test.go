package returns

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds one observation per calendar day with compound daily growth
func dailySeries(t *testing.T, start time.Time, days int, startPrice, growth float64) PriceSeries {
	t.Helper()
	points := make([]PricePoint, days)
	for i := range points {
		points[i] = PricePoint{
			Date:  start.AddDate(0, 0, i),
			Price: startPrice * math.Pow(1+growth, float64(i)),
		}
	}
	series, err := NewPriceSeries(points)
	require.NoError(t, err)
	return series
}

func mustSeries(t *testing.T, points ...PricePoint) PriceSeries {
	t.Helper()
	series, err := NewPriceSeries(points)
	require.NoError(t, err)
	return series
}
