package pipeline

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Default()
	cfg.WindowSize = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadWindow) {
		t.Fatalf("window 0: got %v, want ErrBadWindow", err)
	}

	cfg = Default()
	cfg.RSIPeriod = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative rsi period must fail")
	}

	cfg = Default()
	cfg.BollStd = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero band width must fail")
	}

	cfg = Default()
	cfg.WMAWindows = []int{5, 0}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero wma window must fail")
	}
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	a := Default().Fingerprint()
	b := Default().Fingerprint()
	if a != b {
		t.Fatalf("fingerprint not stable: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("fingerprint length: got %d, want 12", len(a))
	}

	cfg := Default()
	cfg.WindowSize = 9
	if cfg.Fingerprint() == a {
		t.Fatalf("window change must move the fingerprint")
	}

	cfg = Default()
	cfg.PriceColumns = cfg.PriceColumns[:4]
	if cfg.Fingerprint() == a {
		t.Fatalf("column layout change must move the fingerprint")
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"training", "inference"} {
		m, err := ParseMode(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if string(m) != s {
			t.Fatalf("parse %q: got %q", s, m)
		}
	}
	if _, err := ParseMode("predictive"); err == nil {
		t.Fatalf("unknown mode must fail")
	}
}
