package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
)

// Config holds the account and contract parameters of one simulation. It is
// passed by value; nothing in the engine keeps global state.
type Config struct {
	InitialCash       float64 `yaml:"initial_cash" json:"initial_cash"`
	FeeRate           float64 `yaml:"fee_rate" json:"fee_rate"`
	Slippage          float64 `yaml:"slippage" json:"slippage"`
	Leverage          float64 `yaml:"leverage" json:"leverage"`
	LotSize           float64 `yaml:"lot_size" json:"lot_size"`
	MaintenanceMargin float64 `yaml:"maintenance_margin" json:"maintenance_margin"`
}

func DefaultConfig() Config {
	return Config{
		InitialCash:       10000,
		FeeRate:           8.0 / 10000,
		Slippage:          1.0 / 1000,
		Leverage:          1,
		LotSize:           market.DefaultLotSize,
		MaintenanceMargin: 0.01,
	}
}

func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
		min  float64
		max  float64
		open bool // exclusive lower bound
	}{
		{"initial_cash", c.InitialCash, 0, math.Inf(1), true},
		{"fee_rate", c.FeeRate, 0, 1, false},
		{"slippage", c.Slippage, 0, 1, false},
		{"leverage", c.Leverage, 0, math.Inf(1), true},
		{"lot_size", c.LotSize, 0, math.Inf(1), true},
		{"maintenance_margin", c.MaintenanceMargin, 0, 1, false},
	} {
		bad := math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < f.min || f.v >= f.max
		if f.open && f.v == f.min {
			bad = true
		}
		if bad {
			return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	return nil
}

// EquityPoint is the simulated account state at the close of one bar.
type EquityPoint struct {
	Time     time.Time
	Position Side
	// Opened and Closed mark the first and last bar of a position run.
	Opened bool
	Closed bool

	Contracts  int64
	EntryPrice float64
	ExitPrice  float64 // set on Closed bars

	NetValue   float64
	Change     float64
	Cumulative float64
	Liquidated bool
}

// Simulate walks bars in order and values the account under positions.
//
// Each position run is funded with InitialCash. On the first bar of a run the
// engine buys floor(InitialCash*Leverage/(LotSize*open)) contracts at the
// slipped open and pays the opening fee; held bars are marked to the close;
// the last bar of a run exits at the next bar's slipped open and pays the
// closing fee. A bar whose worst intrabar price takes the margin ratio to
// MaintenanceMargin+FeeRate or below liquidates the run: that bar and the
// rest of the run are worth zero.
func Simulate(bars []market.Bar, positions []Side, cfg Config) ([]EquityPoint, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyInput
	}
	if len(bars) != len(positions) {
		return nil, fmt.Errorf("%w: %d bars, %d positions", ErrLengthMismatch, len(bars), len(positions))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		points     = make([]EquityPoint, len(bars))
		last       = len(bars) - 1
		contracts  int64
		entry      float64
		cash       float64
		liquidated bool
		prevNet    = cfg.InitialCash
		cum        = 1.0
	)

	for i, b := range bars {
		dir := positions[i]
		pt := EquityPoint{Time: b.Time, Position: dir}

		if dir == Flat {
			liquidated = false
			pt.NetValue = cfg.InitialCash
			pt.Cumulative = cum
			points[i] = pt
			prevNet = cfg.InitialCash
			continue
		}

		pt.Opened = i == 0 || positions[i-1] != dir
		pt.Closed = i == last || positions[i+1] != dir

		if pt.Opened {
			liquidated = false
			contracts = int64(math.Floor(cfg.InitialCash * cfg.Leverage / (cfg.LotSize * b.Open)))
			entry = b.Open * (1 + cfg.Slippage*float64(dir))
			cash = cfg.InitialCash - fee(cfg.LotSize, contracts, entry, cfg.FeeRate)
			prevNet = cfg.InitialCash
		}
		pt.Contracts = contracts
		pt.EntryPrice = entry

		net := cash + pnl(cfg.LotSize, contracts, entry, b.Close, dir)
		if pt.Closed {
			exit := b.Close
			if i < last {
				exit = bars[i+1].Open * (1 - cfg.Slippage*float64(dir))
			}
			pt.ExitPrice = exit
			net = cash + pnl(cfg.LotSize, contracts, entry, exit, dir) - fee(cfg.LotSize, contracts, exit, cfg.FeeRate)
			if net < 0 {
				liquidated = true
			}
		}

		if !liquidated && contracts > 0 {
			ratio := marginRatio(cash, cfg.LotSize, contracts, entry, worstPrice(b, dir), dir)
			liquidated = cfg.liquidated(ratio)
		}
		if liquidated {
			net = 0
		}
		pt.Liquidated = liquidated
		pt.NetValue = net

		switch {
		case pt.Opened:
			pt.Change = net/cfg.InitialCash - 1
		case prevNet == 0:
			pt.Change = 0
		default:
			pt.Change = net/prevNet - 1
		}
		cum *= 1 + pt.Change
		pt.Cumulative = cum
		prevNet = net
		points[i] = pt
	}
	return points, nil
}

// Opens counts the position runs started in points.
func Opens(points []EquityPoint) int {
	n := 0
	for _, p := range points {
		if p.Opened {
			n++
		}
	}
	return n
}
