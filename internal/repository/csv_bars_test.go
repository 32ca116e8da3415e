package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"FinPrep/internal/domain/models"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSVBars(t *testing.T) {
	path := writeCSV(t, `time,open,high,low,close,tick_volume,spread
2024-03-01 00:00:00,1.0848,1.0851,1.0846,1.0850,1250,2
2024-03-01 00:01:00,1.0850,1.0853,1.0849,1.0852,980,3
`)

	bars, err := LoadCSVBars(path, "EURUSD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars: got %d, want 2", len(bars))
	}

	b := bars[0]
	if b.Symbol != "EURUSD" {
		t.Fatalf("symbol: got %s", b.Symbol)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !b.Time.Equal(want) {
		t.Fatalf("time: got %v, want %v", b.Time, want)
	}
	if b.Open != 1.0848 || b.Close != 1.0850 {
		t.Fatalf("prices: got %+v", b)
	}
	// tick_volume maps onto volume
	if b.Volume != 1250 {
		t.Fatalf("volume: got %d, want 1250", b.Volume)
	}
	if b.Spread != 2 {
		t.Fatalf("spread: got %d, want 2", b.Spread)
	}
}

func TestLoadCSVBarsUnixTime(t *testing.T) {
	path := writeCSV(t, `time,open,high,low,close,volume
1709251200,1.08,1.09,1.07,1.085,500
`)

	bars, err := LoadCSVBars(path, "EURUSD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bars[0].Time; !got.Equal(time.Unix(1709251200, 0).UTC()) {
		t.Fatalf("time: got %v", got)
	}
	if bars[0].Spread != 0 {
		t.Fatalf("absent spread must stay zero, got %d", bars[0].Spread)
	}
}

func TestLoadCSVBarsSymbolColumnWins(t *testing.T) {
	path := writeCSV(t, `symbol,time,open,high,low,close,volume,spread
GBPUSD,2024-03-01 00:00:00,1.26,1.27,1.25,1.265,700,4
`)

	bars, err := LoadCSVBars(path, "EURUSD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bars[0].Symbol != "GBPUSD" {
		t.Fatalf("symbol: got %s, want GBPUSD", bars[0].Symbol)
	}
}

func TestLoadCSVBarsMissingColumn(t *testing.T) {
	path := writeCSV(t, `time,open,high,low
2024-03-01 00:00:00,1,1,1
`)

	if _, err := LoadCSVBars(path, "EURUSD"); err == nil {
		t.Fatalf("missing close column must fail")
	}
}

func TestLoadCSVBarsBadValue(t *testing.T) {
	path := writeCSV(t, `time,open,high,low,close
2024-03-01 00:00:00,1.0,1.1,0.9,not-a-price
`)

	if _, err := LoadCSVBars(path, "EURUSD"); err == nil {
		t.Fatalf("unparseable price must fail")
	}
}

func TestSaveCSVBarsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	in := []models.Bar{
		{
			Symbol: "EURUSD",
			Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Open:   1.0848, High: 1.0851, Low: 1.0846, Close: 1.0850,
			Volume: 1250, Spread: 2,
		},
		{
			Symbol: "EURUSD",
			Time:   time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC),
			Open:   1.0850, High: 1.0853, Low: 1.0849, Close: 1.0852,
			Volume: 980, Spread: 3,
		},
	}

	if err := SaveCSVBars(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadCSVBars(path, "EURUSD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("rows: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("bar %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}
