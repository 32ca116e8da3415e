package models

import "time"

// Bar represents one OHLCV price bar as delivered by a market-data
// source. Spread is carried through storage for data-quality checks
// but never enters the feature pipeline.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Spread int32
}

// Range returns the signed percentage move of the bar, 0 when the
// open is zero.
func (b Bar) Range() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}
