package returns

import (
	"sort"
	"time"

	"github.com/aristath/navreturns/pkg/formulas"
)

// RawPoint is one NAV record exactly as delivered by a provider
type RawPoint struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// History is a provider's raw NAV history for one scheme
type History struct {
	Code       string     `json:"code"`
	SchemeName string     `json:"scheme_name"`
	Points     []RawPoint `json:"points"`
}

// PricePoint is a single validated NAV observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is an immutable NAV series with strictly increasing dates and positive prices.
// Construct it with Normalize or NewPriceSeries.
type PriceSeries struct {
	points []PricePoint
}

// NewPriceSeries validates points and returns a series holding its own copy of them
func NewPriceSeries(points []PricePoint) (PriceSeries, error) {
	for i, p := range points {
		if !(p.Price > 0) {
			return PriceSeries{}, ErrInvalidSeries
		}
		if i > 0 && !p.Date.After(points[i-1].Date) {
			return PriceSeries{}, ErrInvalidSeries
		}
	}

	owned := make([]PricePoint, len(points))
	copy(owned, points)
	return PriceSeries{points: owned}, nil
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.points)
}

// IsEmpty reports whether the series has no observations
func (s PriceSeries) IsEmpty() bool {
	return len(s.points) == 0
}

// At returns the i-th observation
func (s PriceSeries) At(i int) PricePoint {
	return s.points[i]
}

// First returns the earliest observation. The series must not be empty.
func (s PriceSeries) First() PricePoint {
	return s.points[0]
}

// Last returns the latest observation. The series must not be empty.
func (s PriceSeries) Last() PricePoint {
	return s.points[len(s.points)-1]
}

// Points returns a copy of the observations
func (s PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// FirstOnOrAfter finds the earliest observation dated on or after date
func (s PriceSeries) FirstOnOrAfter(date time.Time) (PricePoint, bool) {
	i := s.indexOnOrAfter(date)
	if i == len(s.points) {
		return PricePoint{}, false
	}
	return s.points[i], true
}

// CountFrom counts observations dated on or after date
func (s PriceSeries) CountFrom(date time.Time) int {
	return len(s.points) - s.indexOnOrAfter(date)
}

func (s PriceSeries) indexOnOrAfter(date time.Time) int {
	return sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(date)
	})
}

// CashFlowSchedule is an ordered cash-flow stream: contributions first, the
// terminal redemption last
type CashFlowSchedule []formulas.CashFlow

// SIPPlan describes a recurring fixed-amount contribution
type SIPPlan struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Day    int     `json:"day" validate:"min=1,max=31"`
}

// DefaultSIPPlan contributes 10,000 on the first of every month
func DefaultSIPPlan() SIPPlan {
	return SIPPlan{Amount: 10000, Day: 1}
}

// SIPOutcome is the result of simulating a SIPPlan against a series
type SIPOutcome struct {
	Invested      float64          `json:"invested"`
	Value         float64          `json:"value"`
	Units         float64          `json:"units"`
	Contributions int              `json:"contributions"`
	Schedule      CashFlowSchedule `json:"schedule"`
}

// SplitEvent records a detected unit restructuring
type SplitEvent struct {
	Date   time.Time `json:"date"`
	Ratio  float64   `json:"ratio"`
	Factor float64   `json:"factor"`
}
