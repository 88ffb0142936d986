package returns

import (
	"time"

	"github.com/aristath/navreturns/pkg/formulas"
	"gonum.org/v1/gonum/floats"
)

// SimulateSIP invests plan.Amount on plan.Day of every month from start's month
// through end and values the accumulated units at the series' last price.
//
// A contribution executes at the first observation dated on or after its
// scheduled date; when none exists it is skipped. Contributions are dated at
// their execution date in the schedule, followed by one terminal inflow dated
// at the last observation. ErrInfeasible is returned when nothing executes.
func SimulateSIP(series PriceSeries, start, end time.Time, plan SIPPlan) (SIPOutcome, error) {
	if series.IsEmpty() || plan.Amount <= 0 {
		return SIPOutcome{}, ErrInfeasible
	}

	var (
		units    []float64
		schedule CashFlowSchedule
	)
	for _, due := range ContributionDates(start, end, plan.Day) {
		exec, ok := series.FirstOnOrAfter(due)
		if !ok {
			continue
		}
		units = append(units, plan.Amount/exec.Price)
		schedule = append(schedule, formulas.CashFlow{Date: exec.Date, Amount: -plan.Amount})
	}

	if len(units) == 0 {
		return SIPOutcome{}, ErrInfeasible
	}

	last := series.Last()
	totalUnits := floats.Sum(units)
	value := totalUnits * last.Price
	schedule = append(schedule, formulas.CashFlow{Date: last.Date, Amount: value})

	return SIPOutcome{
		Invested:      float64(len(units)) * plan.Amount,
		Value:         value,
		Units:         totalUnits,
		Contributions: len(units),
		Schedule:      schedule,
	}, nil
}

// ContributionDates lists the scheduled contribution dates between start's month
// and end inclusive. A day beyond the month's length falls back to its last day.
func ContributionDates(start, end time.Time, day int) []time.Time {
	if day < 1 {
		day = 1
	}

	var dates []time.Time
	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !month.After(end) {
		d := day
		if last := daysInMonth(month); d > last {
			d = last
		}
		due := time.Date(month.Year(), month.Month(), d, 0, 0, 0, 0, time.UTC)
		if !due.After(end) {
			dates = append(dates, due)
		}
		month = month.AddDate(0, 1, 0)
	}
	return dates
}

func daysInMonth(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
