package returns

import (
	"errors"
	"math"

	"github.com/aristath/navreturns/pkg/formulas"
	"github.com/rs/zerolog"
)

// CalculatorConfig holds the engine parameters
type CalculatorConfig struct {
	Plan       SIPPlan
	DateLayout string
	Policy     PeriodPolicy
}

// HorizonOutcome is the resolution of one horizon
type HorizonOutcome struct {
	Label  string   `json:"label"`
	Status Status   `json:"status"`
	Value  *float64 `json:"value"`
}

// Calculator computes periodic returns for a NAV series.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	plan   SIPPlan
	layout string
	policy PeriodPolicy
	log    zerolog.Logger
}

// NewCalculator creates a calculator, filling unset fields with defaults
func NewCalculator(cfg CalculatorConfig, log zerolog.Logger) *Calculator {
	if cfg.Plan.Amount <= 0 {
		cfg.Plan.Amount = DefaultSIPPlan().Amount
	}
	if cfg.Plan.Day < 1 || cfg.Plan.Day > 31 {
		cfg.Plan.Day = DefaultSIPPlan().Day
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = DefaultDateLayout
	}
	if len(cfg.Policy) == 0 {
		cfg.Policy = DefaultPolicy()
	}

	return &Calculator{
		plan:   cfg.Plan,
		layout: cfg.DateLayout,
		policy: cfg.Policy,
		log:    log.With().Str("component", "returns_calculator").Logger(),
	}
}

// Policy returns the horizon table in use
func (c *Calculator) Policy() PeriodPolicy {
	return c.policy
}

// ComputeReturns normalizes and split-adjusts a raw history, then evaluates every horizon.
// ErrNoData is the only error returned; per-horizon problems surface as null values.
func (c *Calculator) ComputeReturns(history []RawPoint, code string) (ReturnResult, error) {
	series, err := Normalize(history, c.layout)
	if err != nil {
		c.log.Debug().Str("code", code).Msg("No usable NAV data")
		return ReturnResult{}, err
	}

	adjusted, events := AdjustSplits(series)
	for _, e := range events {
		c.log.Info().
			Str("code", code).
			Time("date", e.Date).
			Float64("ratio", e.Ratio).
			Float64("factor", e.Factor).
			Msg("Detected unit split, adjusting history")
	}

	result := c.Compute(adjusted, c.policy)
	if approx := result.Approximate(); len(approx) > 0 {
		c.log.Warn().Str("code", code).Strs("horizons", approx).Msg("XIRR did not converge, values are approximate")
	}
	return result, nil
}

// Compute evaluates policy against an adjusted series
func (c *Calculator) Compute(series PriceSeries, policy PeriodPolicy) ReturnResult {
	result := NewReturnResult(policy.Labels())
	for _, outcome := range c.Evaluate(series, policy) {
		result.Set(outcome.Label, outcome.Value)
		if outcome.Status == StatusNonConvergent {
			result.MarkApproximate(outcome.Label)
		}
	}
	return result
}

// Evaluate resolves every horizon of policy independently, in policy order
func (c *Calculator) Evaluate(series PriceSeries, policy PeriodPolicy) []HorizonOutcome {
	outcomes := make([]HorizonOutcome, 0, len(policy))
	for _, h := range policy {
		outcome := c.evaluateHorizon(series, h)
		c.log.Debug().
			Str("horizon", h.Label).
			Str("status", string(outcome.Status)).
			Msg("Evaluated horizon")
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (c *Calculator) evaluateHorizon(series PriceSeries, h Horizon) HorizonOutcome {
	outcome := HorizonOutcome{Label: h.Label, Status: StatusInsufficientHistory}
	if series.IsEmpty() {
		return outcome
	}

	end := series.Last().Date
	start := end.AddDate(0, 0, -h.LookbackDays)
	if start.Before(series.First().Date) {
		return outcome
	}

	switch h.Convention {
	case SimpleGrowth:
		sim, err := SimulateSIP(series, start, end, c.plan)
		if err != nil {
			outcome.Status = StatusInfeasible
			return outcome
		}
		return finish(outcome, (sim.Value/sim.Invested-1)*100, StatusOK)

	case AnnualizedRate:
		sim, err := SimulateSIP(series, start, end, c.plan)
		if err != nil {
			outcome.Status = StatusInfeasible
			return outcome
		}
		solved, err := formulas.XIRR(sim.Schedule)
		if err != nil {
			if !errors.Is(err, formulas.ErrInvalidSchedule) {
				c.log.Warn().Err(err).Str("horizon", h.Label).Msg("XIRR failed")
			}
			outcome.Status = StatusInfeasible
			return outcome
		}
		status := StatusOK
		if !solved.Converged {
			status = StatusNonConvergent
		}
		return finish(outcome, solved.Rate*100, status)

	case PointToPoint:
		if h.MinObservations > 0 && series.CountFrom(start) < h.MinObservations {
			outcome.Status = StatusInsufficientObservation
			return outcome
		}
		first, ok := series.FirstOnOrAfter(start)
		if !ok {
			outcome.Status = StatusInfeasible
			return outcome
		}
		days := end.Sub(first.Date).Hours() / 24
		cagr := formulas.CalculateCAGR(first.Price, series.Last().Price, days)
		if cagr == nil {
			outcome.Status = StatusInfeasible
			return outcome
		}
		return finish(outcome, *cagr*100, StatusOK)
	}

	outcome.Status = StatusInfeasible
	return outcome
}

func finish(outcome HorizonOutcome, percent float64, status Status) HorizonOutcome {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		outcome.Status = StatusInfeasible
		return outcome
	}
	v := formulas.RoundPercent(percent)
	outcome.Value = &v
	outcome.Status = status
	return outcome
}
