package market

import "errors"

// Input errors. The simulator never runs on a series that fails Validate.
var (
	ErrEmptySeries   = errors.New("empty bar series")
	ErrNotMonotonic  = errors.New("timestamps not strictly increasing")
	ErrGap           = errors.New("gap in bar series")
	ErrBadPrice      = errors.New("invalid bar price")
	ErrBadTimeframe  = errors.New("invalid timeframe")
	ErrMissingColumn = errors.New("missing csv column")
)
