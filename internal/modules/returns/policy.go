package returns

import (
	"fmt"
	"strings"
)

// Convention selects how a horizon's return is computed
type Convention string

const (
	// SimpleGrowth is the absolute percentage gain of a contribution simulation
	SimpleGrowth Convention = "simple_growth"
	// AnnualizedRate is the XIRR of a contribution simulation
	AnnualizedRate Convention = "annualized_rate"
	// PointToPoint is the CAGR between the first NAV in the window and the last NAV
	PointToPoint Convention = "point_to_point"
)

// Long-horizon modes accepted by PolicyForMode
const (
	ModeXIRR = "xirr"
	ModeCAGR = "cagr"
)

// DefaultMinObservations is the minimum number of NAVs a point-to-point window needs
const DefaultMinObservations = 200

// Horizon is one row of a PeriodPolicy
type Horizon struct {
	Label        string     `json:"label"`
	LookbackDays int        `json:"lookback_days"`
	Convention   Convention `json:"convention"`
	// MinObservations applies to PointToPoint only; zero disables the check
	MinObservations int `json:"min_observations,omitempty"`
}

// PeriodPolicy is the ordered horizon table. Output order follows it.
type PeriodPolicy []Horizon

// Labels returns the horizon labels in policy order
func (p PeriodPolicy) Labels() []string {
	labels := make([]string, len(p))
	for i, h := range p {
		labels[i] = h.Label
	}
	return labels
}

// Has reports whether the policy defines label
func (p PeriodPolicy) Has(label string) bool {
	for _, h := range p {
		if h.Label == label {
			return true
		}
	}
	return false
}

var shortHorizons = []Horizon{
	{Label: "1M", LookbackDays: 30, Convention: SimpleGrowth},
	{Label: "3M", LookbackDays: 90, Convention: SimpleGrowth},
	{Label: "6M", LookbackDays: 180, Convention: SimpleGrowth},
	{Label: "1Y", LookbackDays: 365, Convention: SimpleGrowth},
}

var longHorizons = []struct {
	label string
	days  int
}{
	{"3Y", 1095},
	{"5Y", 1825},
	{"7Y", 2555},
	{"10Y", 3650},
}

// DefaultPolicy uses SimpleGrowth up to one year and XIRR beyond
func DefaultPolicy() PeriodPolicy {
	policy := append(PeriodPolicy{}, shortHorizons...)
	for _, h := range longHorizons {
		policy = append(policy, Horizon{Label: h.label, LookbackDays: h.days, Convention: AnnualizedRate})
	}
	return policy
}

// PointToPointPolicy uses SimpleGrowth up to one year and CAGR beyond, requiring
// minObservations NAVs inside each long window
func PointToPointPolicy(minObservations int) PeriodPolicy {
	if minObservations <= 0 {
		minObservations = DefaultMinObservations
	}

	policy := append(PeriodPolicy{}, shortHorizons...)
	for _, h := range longHorizons {
		policy = append(policy, Horizon{
			Label:           h.label,
			LookbackDays:    h.days,
			Convention:      PointToPoint,
			MinObservations: minObservations,
		})
	}
	return policy
}

// PolicyForMode resolves a configured long-horizon mode
func PolicyForMode(mode string, minObservations int) (PeriodPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeXIRR:
		return DefaultPolicy(), nil
	case ModeCAGR:
		return PointToPointPolicy(minObservations), nil
	default:
		return nil, fmt.Errorf("unknown long horizon mode %q", mode)
	}
}
