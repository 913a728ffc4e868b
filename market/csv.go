package market

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// column aliases accepted in bar file headers
var columnAliases = map[string][]string{
	"time":         {"candle_begin_time", "time", "timestamp", "open_time", "date"},
	"open":         {"open"},
	"high":         {"high"},
	"low":          {"low"},
	"close":        {"close"},
	"volume":       {"volume"},
	"quote_volume": {"quote_volume", "b_bar_quote_volume"},
	"offset":       {"offset"},
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCSV reads a bar file. Plain, .gz and .xz files are accepted; the symbol
// defaults to the file name without extensions.
func LoadCSV(path string) (*Series, error) {
	return LoadCSVOffset(path, 0)
}

// LoadCSVOffset is LoadCSV keeping only the rows of one resampling offset.
func LoadCSVOffset(path string, offset int) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s, err := ReadCSVOffset(r, SymbolFromPath(path), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SymbolFromPath strips directories and every extension: data/1H/BTC-USDT.csv.xz -> BTC-USDT.
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func decompress(r io.Reader, path string) (io.Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return xz.NewReader(bufio.NewReader(r))
	case ".gz":
		return gzip.NewReader(r)
	}
	return r, nil
}

// ReadCSV parses header-driven OHLCV rows. Column order is free; time, open,
// high, low and close are required. Files exported as UTF-16 (with BOM) are
// decoded transparently. Files resampled at several offsets carry an offset
// column; only offset 0 is kept.
func ReadCSV(r io.Reader, symbol string) (*Series, error) {
	return ReadCSVOffset(r, symbol, 0)
}

// ReadCSVOffset is ReadCSV keeping the rows whose offset column equals
// offset. Files without the column are read whole.
func ReadCSVOffset(r io.Reader, symbol string, offset int) (*Series, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		br = bufio.NewReader(transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	s := &Series{Symbol: symbol}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if i, ok := cols["offset"]; ok && i < len(row) {
			v := strings.TrimSpace(row[i])
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad offset %q: %w", line, v, err)
			}
			if n != float64(offset) {
				continue
			}
		}

		b, err := parseBarRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s.Bars = append(s.Bars, b)
	}
	return s, nil
}

func mapColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[h] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for name, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := idx[a]; ok {
				cols[name] = i
				break
			}
		}
	}
	for _, req := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}
	return cols, nil
}

func parseBarRow(row []string, cols map[string]int) (Bar, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	ts, _ := field("time")
	t, err := ParseTime(ts)
	if err != nil {
		return Bar{}, err
	}

	var b Bar
	b.Time = t
	for _, c := range []struct {
		name     string
		dst      *float64
		optional bool
	}{
		{"open", &b.Open, false},
		{"high", &b.High, false},
		{"low", &b.Low, false},
		{"close", &b.Close, false},
		{"volume", &b.Volume, true},
		{"quote_volume", &b.QuoteVolume, true},
	} {
		v, ok := field(c.name)
		if !ok || v == "" {
			if c.optional {
				continue
			}
			return Bar{}, fmt.Errorf("%w: %s", ErrMissingColumn, c.name)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", c.name, v, err)
		}
		*c.dst = f
	}
	return b, nil
}

// ParseTime accepts the layouts found in exchange dumps plus unix seconds or
// milliseconds. Results are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
		}
		if len(s) > 10 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
