package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DefaultLotSize is used for symbols missing from the lot size table.
const DefaultLotSize = 0.001

// LotSizes maps a contract symbol to its minimum order size.
type LotSizes struct {
	sizes    map[string]float64
	Fallback float64
}

func NewLotSizes(fallback float64) *LotSizes {
	if fallback <= 0 {
		fallback = DefaultLotSize
	}
	return &LotSizes{sizes: map[string]float64{}, Fallback: fallback}
}

// Set records a lot size.
func (l *LotSizes) Set(symbol string, size float64) {
	l.sizes[symbol] = size
}

// Get returns the lot size for symbol, or the fallback.
func (l *LotSizes) Get(symbol string) float64 {
	if l == nil {
		return DefaultLotSize
	}
	if v, ok := l.sizes[symbol]; ok {
		return v
	}
	return l.Fallback
}

func (l *LotSizes) Len() int {
	return len(l.sizes)
}

// LoadLotSizes reads a two column table (symbol, lot size) with a header row.
// encoding is "utf-8" (default) or "gbk"; exchange exports of this table are
// frequently GBK.
func LoadLotSizes(path, encoding string, fallback float64) (*LotSizes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
	case "gbk", "gb18030":
		r = transform.NewReader(f, simplifiedchinese.GBK.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported lot size encoding %q", encoding)
	}

	ls, err := ReadLotSizes(r, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ls, nil
}

// ReadLotSizes parses the lot size table from r.
func ReadLotSizes(r io.Reader, fallback float64) (*LotSizes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	ls := NewLotSizes(fallback)
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return ls, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			continue
		}

		sym := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if first {
				// header
				first = false
				continue
			}
			return nil, fmt.Errorf("bad lot size for %s: %w", sym, err)
		}
		first = false
		if v <= 0 {
			return nil, fmt.Errorf("lot size for %s must be positive", sym)
		}
		ls.Set(sym, v)
	}
}
