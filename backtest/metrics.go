package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// Report summarizes one simulated run. Returns are fractions (0.1 is 10%).
type Report struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Bars  int       `json:"bars"`

	FinalEquity       float64 `json:"final_equity"`
	TotalReturn       float64 `json:"total_return"`
	AnnualReturn      float64 `json:"annual_return"`
	MonthlyMeanReturn float64 `json:"monthly_mean_return"`
	BarsPerYear       float64 `json:"bars_per_year"`

	MaxDrawdown   float64   `json:"max_drawdown"`
	DrawdownStart time.Time `json:"drawdown_start"`
	DrawdownEnd   time.Time `json:"drawdown_end"`

	Calmar     float64 `json:"calmar"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`

	Trades          int     `json:"trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Liquidations    int     `json:"liquidations"`
	WinRate         float64 `json:"win_rate"`
	MeanTradeReturn float64 `json:"mean_trade_return"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	ProfitFactor    float64 `json:"profit_factor"`
	BestTrade       float64 `json:"best_trade"`
	WorstTrade      float64 `json:"worst_trade"`

	LongestHold   time.Duration `json:"longest_hold"`
	ShortestHold  time.Duration `json:"shortest_hold"`
	MeanHold      time.Duration `json:"mean_hold"`
	MaxWinStreak  int           `json:"max_win_streak"`
	MaxLossStreak int           `json:"max_loss_streak"`

	Monthly []MonthlyReturn `json:"monthly,omitempty"`
}

// Evaluate reduces an equity curve and its trades. tf is the nominal bar
// interval, used only to annualize volatility.
func Evaluate(points []sim.EquityPoint, trades []sim.Trade, tf time.Duration) Report {
	var r Report
	if len(points) == 0 {
		return r
	}

	first, last := points[0], points[len(points)-1]
	r.Start, r.End, r.Bars = first.Time, last.Time, len(points)
	r.FinalEquity = last.Cumulative
	r.TotalReturn = r.FinalEquity / 1.0
	r.BarsPerYear = market.BarsPerYear(tf)

	// whole elapsed days; a run shorter than a day is not annualized
	if days := math.Floor(last.Time.Sub(first.Time).Hours() / 24); days >= 1 {
		r.AnnualReturn = finite(math.Pow(r.TotalReturn, 365/days) - 1)
		r.MonthlyMeanReturn = finite(math.Pow(r.TotalReturn, 30/days) - 1)
	}

	dd := Drawdowns(points)
	peak, peakAt := 1.0, first.Time
	for i, p := range points {
		if p.Cumulative > peak {
			peak, peakAt = p.Cumulative, p.Time
		}
		if dd[i] < r.MaxDrawdown {
			r.MaxDrawdown = dd[i]
			r.DrawdownStart = peakAt
			r.DrawdownEnd = p.Time
		}
	}
	if r.MaxDrawdown != 0 {
		r.Calmar = finite(r.AnnualReturn / math.Abs(r.MaxDrawdown))
	}

	changes := make([]float64, len(points))
	for i, p := range points {
		changes[i] = p.Change
	}
	if sd := stdev(changes); sd > 0 && r.BarsPerYear > 0 {
		r.Volatility = finite(sd * math.Sqrt(r.BarsPerYear))
		if r.Volatility > 0 {
			r.Sharpe = finite(r.AnnualReturn / r.Volatility)
		}
	}

	r.tradeStats(trades)
	r.Monthly = Monthly(points)
	return r
}

func (r *Report) tradeStats(trades []sim.Trade) {
	r.Trades = len(trades)
	if len(trades) == 0 {
		return
	}

	var (
		sum, winSum, lossSum float64
		lossN                int
		hold                 time.Duration
		winRun, lossRun      int
	)
	r.BestTrade = math.Inf(-1)
	r.WorstTrade = math.Inf(1)
	r.ShortestHold = trades[0].Holding()

	for _, t := range trades {
		ret := t.Return
		sum += ret
		r.BestTrade = math.Max(r.BestTrade, ret)
		r.WorstTrade = math.Min(r.WorstTrade, ret)
		if t.Liquidated {
			r.Liquidations++
		}

		if ret > 0 {
			r.Wins++
			winSum += ret
		} else {
			r.Losses++
		}
		if ret < 0 {
			lossN++
			lossSum += ret
		}

		// streaks: a flat trade breaks both
		winRun, lossRun = streak(winRun, ret > 0), streak(lossRun, ret < 0)
		r.MaxWinStreak = max(r.MaxWinStreak, winRun)
		r.MaxLossStreak = max(r.MaxLossStreak, lossRun)

		h := t.Holding()
		hold += h
		r.LongestHold = max(r.LongestHold, h)
		r.ShortestHold = min(r.ShortestHold, h)
	}

	n := float64(len(trades))
	r.WinRate = float64(r.Wins) / n
	r.MeanTradeReturn = sum / n
	r.MeanHold = hold / time.Duration(len(trades))
	if r.Wins > 0 {
		r.AvgWin = winSum / float64(r.Wins)
	}
	if lossN > 0 {
		r.AvgLoss = lossSum / float64(lossN)
	}
	if r.AvgLoss != 0 {
		r.ProfitFactor = r.AvgWin / -r.AvgLoss
	}
}

func streak(run int, hit bool) int {
	if hit {
		return run + 1
	}
	return 0
}

// Drawdowns returns cum/runningMax(cum) - 1 for every point. The running
// max starts at 1, the equity every run starts from.
func Drawdowns(points []sim.EquityPoint) []float64 {
	out := make([]float64, len(points))
	peak := 1.0
	for i, p := range points {
		peak = math.Max(peak, p.Cumulative)
		if peak > 0 {
			out[i] = p.Cumulative/peak - 1
		}
	}
	return out
}

// finite maps NaN and ±Inf to 0 so reports stay JSON-encodable.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// stdev is the sample standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
