package sim

import "github.com/rustyeddy/perpbt/market"

// worstPrice is the intrabar extreme against the position.
func worstPrice(b market.Bar, dir Side) float64 {
	if dir == Short {
		return b.High
	}
	return b.Low
}

// marginRatio is the account value at the worst price over the notional at
// that price.
func marginRatio(cash, lot float64, contracts int64, entry, worst float64, dir Side) float64 {
	notional := lot * float64(contracts) * worst
	return (cash + pnl(lot, contracts, entry, worst, dir)) / notional
}

// liquidated reports whether the bar breaches maintenance margin. The fee rate
// is added to the maintenance requirement to cover the forced close.
func (c Config) liquidated(ratio float64) bool {
	return ratio <= c.MaintenanceMargin+c.FeeRate
}
