package sim

// pnl is the profit of contracts lots entered at entry and valued at price.
func pnl(lot float64, contracts int64, entry, price float64, dir Side) float64 {
	return lot * float64(contracts) * (price - entry) * float64(dir)
}

// fee charged on a fill at price.
func fee(lot float64, contracts int64, price, rate float64) float64 {
	return price * lot * float64(contracts) * rate
}
