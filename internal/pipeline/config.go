package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Mode selects what the pipeline returns: training keeps the label
// array alongside the tensor, inference drops the label before
// reshaping.
type Mode string

const (
	ModeTraining  Mode = "training"
	ModeInference Mode = "inference"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTraining, ModeInference:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown pipeline mode %q", s)
	}
}

// Config carries every tunable of a pipeline run. The zero value is
// not usable; start from Default and override.
type Config struct {
	WindowSize int

	WMAWindows  []int
	MACDShort   int
	MACDLong    int
	MACDSignal  int
	RSIPeriod   int
	StochPeriod int
	StochSmooth int
	BiasPeriod  int
	BollPeriod  int
	BollStd     float64
	ATRPeriod   int

	// Column names assigned to each scaling group.
	PriceColumns   []string
	VolumeColumns  []string
	PercentColumns []string
	SignedColumns  []string
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		WindowSize:  8,
		WMAWindows:  []int{5, 10},
		MACDShort:   12,
		MACDLong:    26,
		MACDSignal:  9,
		RSIPeriod:   7,
		StochPeriod: 14,
		StochSmooth: 3,
		BiasPeriod:  5,
		BollPeriod:  20,
		BollStd:     2,
		ATRPeriod:   14,
		PriceColumns: []string{
			ColOpen, ColHigh, ColLow, ColClose,
			WMAColumn(5), WMAColumn(10),
			ColBollUp, ColBollLow,
		},
		VolumeColumns:  []string{ColVolume, ColATR},
		PercentColumns: []string{ColRSI, ColStochK, ColStochD, ColBias},
		SignedColumns:  []string{ColMACDLine, ColMACDSig, ColMACDHist},
	}
}

// Validate rejects configurations the pipeline cannot run.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size %d: %w", c.WindowSize, ErrBadWindow)
	}
	for _, k := range c.WMAWindows {
		if k < 1 {
			return fmt.Errorf("wma window must be positive, got %d", k)
		}
	}
	periods := map[string]int{
		"macd_short":   c.MACDShort,
		"macd_long":    c.MACDLong,
		"macd_signal":  c.MACDSignal,
		"rsi_period":   c.RSIPeriod,
		"stoch_period": c.StochPeriod,
		"stoch_smooth": c.StochSmooth,
		"bias_period":  c.BiasPeriod,
		"boll_period":  c.BollPeriod,
		"atr_period":   c.ATRPeriod,
	}
	for name, v := range periods {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.BollStd <= 0 {
		return fmt.Errorf("boll_std must be positive, got %g", c.BollStd)
	}
	return nil
}

// Fingerprint returns a short stable hash of the configuration.
// Producer and consumer compare it to detect drift: two runs with the
// same fingerprint build feature vectors with identical layout.
func (c Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "w=%d;", c.WindowSize)
	fmt.Fprintf(&b, "wma=%v;", c.WMAWindows)
	fmt.Fprintf(&b, "macd=%d/%d/%d;", c.MACDShort, c.MACDLong, c.MACDSignal)
	fmt.Fprintf(&b, "rsi=%d;stoch=%d/%d;bias=%d;", c.RSIPeriod, c.StochPeriod, c.StochSmooth, c.BiasPeriod)
	fmt.Fprintf(&b, "boll=%d/%g;atr=%d;", c.BollPeriod, c.BollStd, c.ATRPeriod)
	fmt.Fprintf(&b, "price=%s;", strings.Join(c.PriceColumns, ","))
	fmt.Fprintf(&b, "volume=%s;", strings.Join(c.VolumeColumns, ","))
	fmt.Fprintf(&b, "percent=%s;", strings.Join(c.PercentColumns, ","))
	fmt.Fprintf(&b, "signed=%s", strings.Join(c.SignedColumns, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:12]
}
