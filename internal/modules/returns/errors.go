package returns

import "errors"

var (
	// ErrNoData means no usable NAV observations exist for an instrument.
	// It is an expected outcome, not a failure.
	ErrNoData = errors.New("no usable NAV data")

	// ErrInfeasible means a contribution simulation produced no executed contribution
	ErrInfeasible = errors.New("no contribution could be executed")

	// ErrStoreUnavailable means the cache database could not be revived
	ErrStoreUnavailable = errors.New("returns store unavailable")

	// ErrInvalidSeries is returned when points violate series invariants
	ErrInvalidSeries = errors.New("price series must have strictly increasing dates and positive prices")
)

// Status describes how a single horizon was resolved
type Status string

const (
	StatusOK                      Status = "ok"
	StatusInsufficientHistory     Status = "insufficient_history"
	StatusInsufficientObservation Status = "insufficient_observations"
	StatusInfeasible              Status = "infeasible"
	StatusNonConvergent           Status = "non_convergent"
)
