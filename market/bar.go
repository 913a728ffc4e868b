package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV candle. Time is the candle open time (UTC).
type Bar struct {
	Time        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	QuoteVolume float64
}

// Series is an ordered, immutable run of bars for a single symbol.
// Once validated it may be shared by reference across goroutines.
type Series struct {
	Symbol    string
	Timeframe time.Duration // 0 when unknown
	Bars      []Bar
}

func (s *Series) Len() int {
	return len(s.Bars)
}

// First and Last panic on an empty series; call Validate first.
func (s *Series) First() Bar { return s.Bars[0] }
func (s *Series) Last() Bar  { return s.Bars[len(s.Bars)-1] }

// Validate checks the series is usable by the simulator. It never mutates
// the bars.
func (s *Series) Validate() error {
	if s == nil || len(s.Bars) == 0 {
		return ErrEmptySeries
	}

	for i, b := range s.Bars {
		if err := b.validate(); err != nil {
			return fmt.Errorf("%s bar %d (%s): %w", s.Symbol, i, b.Time.Format(time.RFC3339), err)
		}
		if i == 0 {
			continue
		}

		prev := s.Bars[i-1].Time
		if !b.Time.After(prev) {
			return fmt.Errorf("%s bar %d: %s after %s: %w",
				s.Symbol, i, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339), ErrNotMonotonic)
		}
		if s.Timeframe > 0 && b.Time.Sub(prev) != s.Timeframe {
			return fmt.Errorf("%s bar %d: %s between bars, want %s: %w",
				s.Symbol, i, b.Time.Sub(prev), s.Timeframe, ErrGap)
		}
	}
	return nil
}

func (b Bar) validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return ErrBadPrice
		}
	}
	if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("high %.8g low %.8g outside open/close: %w", b.High, b.Low, ErrBadPrice)
	}
	if b.Volume < 0 || b.QuoteVolume < 0 {
		return fmt.Errorf("negative volume: %w", ErrBadPrice)
	}
	return nil
}

// Window returns the sub-series with bars in [from, to]. Zero bounds are open.
// The returned series shares the underlying array.
func (s *Series) Window(from, to time.Time) *Series {
	lo, hi := s.Index(from, to)
	return &Series{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Bars:      s.Bars[lo:hi:hi],
	}
}

// Index returns the bar index range [lo, hi) selected by Window(from, to).
func (s *Series) Index(from, to time.Time) (lo, hi int) {
	lo, hi = 0, len(s.Bars)
	for lo < hi && !from.IsZero() && s.Bars[lo].Time.Before(from) {
		lo++
	}
	for hi > lo && !to.IsZero() && s.Bars[hi-1].Time.After(to) {
		hi--
	}
	return lo, hi
}
