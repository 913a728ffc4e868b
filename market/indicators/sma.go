package indicators

import "fmt"

// SMA is a simple moving average.
type SMA struct {
	n    int
	w    window
	sum  float64
	name string
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		panic("SMA period must be > 0")
	}
	return &SMA{n: period, w: newWindow(period), name: fmt.Sprintf("SMA(%d)", period)}
}

func (s *SMA) Name() string { return s.name }
func (s *SMA) Warmup() int  { return s.n }
func (s *SMA) Ready() bool  { return s.w.full }

func (s *SMA) Update(x float64) {
	if old, ok := s.w.push(x); ok {
		s.sum -= old
	}
	s.sum += x
}

func (s *SMA) Float64() float64 {
	if s.w.len() == 0 {
		return 0
	}
	return s.sum / float64(s.w.len())
}

func (s *SMA) Reset() {
	s.w.reset()
	s.sum = 0
}
