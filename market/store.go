package market

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store resolves bar files laid out as <Dir>/<timeframe>/<symbol>.csv, with
// optional .xz or .gz compression. Offset selects the resampling offset in
// files that carry an offset column.
type Store struct {
	Dir    string
	Offset int
}

var storeExts = []string{".csv", ".csv.xz", ".csv.gz"}

// Path returns the first existing file for symbol at timeframe tf.
func (st Store) Path(symbol string, tf time.Duration) (string, error) {
	name, err := TimeframeString(tf)
	if err != nil {
		return "", err
	}
	for _, ext := range storeExts {
		p := filepath.Join(st.Dir, name, symbol+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no bar file for %s %s under %s: %w", symbol, name, st.Dir, os.ErrNotExist)
}

// Load reads and validates the series for symbol at timeframe tf.
func (st Store) Load(symbol string, tf time.Duration) (*Series, error) {
	p, err := st.Path(symbol, tf)
	if err != nil {
		return nil, err
	}
	s, err := LoadCSVOffset(p, st.Offset)
	if err != nil {
		return nil, err
	}
	s.Symbol = symbol
	s.Timeframe = tf
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
