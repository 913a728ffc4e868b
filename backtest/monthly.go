package backtest

import (
	"time"

	"github.com/rustyeddy/perpbt/sim"
)

// MonthlyReturn is the compounded equity change over one calendar month.
type MonthlyReturn struct {
	Month  time.Time `json:"month"` // first instant of the month, UTC
	Return float64   `json:"return"`
}

func (m MonthlyReturn) Label() string { return m.Month.Format("2006-01") }

// Monthly compounds per-bar changes by UTC calendar month. Months without
// bars between the first and last point are reported with a zero return.
func Monthly(points []sim.EquityPoint) []MonthlyReturn {
	if len(points) == 0 {
		return nil
	}

	var out []MonthlyReturn
	cur := monthOf(points[0].Time)
	growth := 1.0
	for _, p := range points {
		m := monthOf(p.Time)
		for cur.Before(m) {
			out = append(out, MonthlyReturn{Month: cur, Return: growth - 1})
			cur = cur.AddDate(0, 1, 0)
			growth = 1
		}
		growth *= 1 + p.Change
	}
	return append(out, MonthlyReturn{Month: cur, Return: growth - 1})
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
