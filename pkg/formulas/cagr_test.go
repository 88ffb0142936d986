package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCAGR(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		end      float64
		days     float64
		expected *float64
	}{
		{"ten percent over a year", 100, 110, 365, ptr(0.10)},
		{"doubling over two years", 100, 200, 730, ptr(math.Sqrt2 - 1)},
		{"flat", 50, 50, 1000, ptr(0)},
		{"zero start", 0, 110, 365, nil},
		{"negative end", 100, -1, 365, nil},
		{"zero days", 100, 110, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCAGR(tt.start, tt.end, tt.days)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 1e-9)
		})
	}
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 10.0, RoundPercent(9.999999))
	assert.Equal(t, 0.77, RoundPercent(0.7692307))
	assert.Equal(t, -3.14, RoundPercent(-3.14159))

	zero := RoundPercent(-0.0000001)
	assert.False(t, math.Signbit(zero), "negative zero must be normalised")
}

func ptr(v float64) *float64 {
	return &v
}
