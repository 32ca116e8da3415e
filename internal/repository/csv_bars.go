package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"FinPrep/internal/domain/models"
)

// LoadCSVBars reads an exported bar history file. Expected header:
// time,open,high,low,close,volume,spread with "tick_volume" accepted
// as an alias for volume and extra columns ignored. Terminal exports
// carry no symbol column, so the symbol is supplied by the caller
// unless a symbol column is present.
func LoadCSVBars(path, symbol string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if v, ok := idx["tick_volume"]; ok {
		if _, has := idx["volume"]; !has {
			idx["volume"] = v
		}
	}
	for _, required := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", required)
		}
	}

	var bars []models.Bar
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		b, err := parseCSVBar(rec, idx, symbol)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseCSVBar(rec []string, idx map[string]int, symbol string) (models.Bar, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseCSVTime(field("time"))
	if err != nil {
		return models.Bar{}, err
	}

	b := models.Bar{Symbol: symbol, Time: ts}
	if s := field("symbol"); s != "" {
		b.Symbol = s
	}

	prices := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
	}
	for _, p := range prices {
		v, err := strconv.ParseFloat(field(p.name), 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse %s: %w", p.name, err)
		}
		*p.dst = v
	}

	if s := field("volume"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse volume: %w", err)
		}
		b.Volume = v
	}
	if s := field("spread"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse spread: %w", err)
		}
		b.Spread = int32(v)
	}
	return b, nil
}

// SaveCSVBars writes bars in the export layout LoadCSVBars reads back:
// time,open,high,low,close,volume,spread with unix-second timestamps.
func SaveCSVBars(path string, bars []models.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume", "spread"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bars {
		rec := []string{
			strconv.FormatInt(b.Time.UTC().Unix(), 10),
			strconv.FormatFloat(b.Open, 'g', -1, 64),
			strconv.FormatFloat(b.High, 'g', -1, 64),
			strconv.FormatFloat(b.Low, 'g', -1, 64),
			strconv.FormatFloat(b.Close, 'g', -1, 64),
			strconv.FormatInt(b.Volume, 10),
			strconv.FormatInt(int64(b.Spread), 10),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// parseCSVTime accepts unix seconds or the datetime layouts terminal
// exports use.
func parseCSVTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006.01.02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
