package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
)

// Trade is one contiguous run of a non-flat position.
type Trade struct {
	ID        int
	Direction Side
	Start     time.Time
	End       time.Time

	// EntryPrice and ExitPrice are the open of the first bar and the close of
	// the last bar; the slipped fill prices are on the equity points.
	EntryPrice float64
	ExitPrice  float64
	Contracts  int64
	Bars       int

	Return     float64
	MinEquity  float64
	EndEquity  float64
	Liquidated bool
}

// Holding is the time from the first to the last bar of the trade.
func (t Trade) Holding() time.Duration {
	return t.End.Sub(t.Start)
}

func (t Trade) Won() bool { return t.Return > 0 }

// ExtractTrades groups points into trades. A run starts on every Opened
// point, so a reversal from long to short yields two trades.
func ExtractTrades(bars []market.Bar, points []EquityPoint) ([]Trade, error) {
	if len(bars) != len(points) {
		return nil, fmt.Errorf("%w: %d bars, %d equity points", ErrLengthMismatch, len(bars), len(points))
	}

	var (
		trades []Trade
		cur    *Trade
		growth float64
	)
	flush := func() {
		if cur == nil || cur.Bars == 0 {
			cur = nil
			return
		}
		cur.Return = growth - 1
		trades = append(trades, *cur)
		cur = nil
	}

	for i, p := range points {
		if p.Position == Flat {
			flush()
			continue
		}
		if p.Opened || cur == nil || cur.Direction != p.Position {
			flush()
			cur = &Trade{
				ID:         len(trades) + 1,
				Direction:  p.Position,
				Start:      p.Time,
				EntryPrice: bars[i].Open,
				Contracts:  p.Contracts,
				MinEquity:  math.Inf(1),
			}
			growth = 1
		}

		cur.End = p.Time
		cur.ExitPrice = bars[i].Close
		cur.Bars++
		growth *= 1 + p.Change
		cur.MinEquity = math.Min(cur.MinEquity, p.Cumulative)
		cur.EndEquity = p.Cumulative
		cur.Liquidated = cur.Liquidated || p.Liquidated
	}
	flush()
	return trades, nil
}
