package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptySeries   = errors.New("empty candle series")
	ErrNonPositive   = errors.New("non-positive price in candle series")
	ErrNonFinite     = errors.New("NaN or infinite value in candle series")
	ErrUnorderedTime = errors.New("candle timestamps are not strictly increasing")
)

// Candle: one OHLCV bucket. The newest candle of a fetched series may still be open.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (c Candle) finite() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series is ordered by Time, oldest first. No gap filling is done.
type Series []Candle

func (s Series) Len() int { return len(s) }

func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Tail returns the last n candles (all of them if n >= len).
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Validate: series is non-empty, OHLCV values are finite, prices are positive, time strictly increases.
func (s Series) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, c := range s {
		if !c.finite() {
			return fmt.Errorf("candle %d: %w", i, ErrNonFinite)
		}
		if c.Close <= 0 || c.High <= 0 || c.Low <= 0 {
			return fmt.Errorf("candle %d: %w", i, ErrNonPositive)
		}
		if i > 0 && !c.Time.IsZero() && !c.Time.After(s[i-1].Time) {
			return fmt.Errorf("candle %d: %w", i, ErrUnorderedTime)
		}
	}
	return nil
}

// IsFlat reports whether every close in the series is the same.
func (s Series) IsFlat() bool {
	if len(s) == 0 {
		return false
	}
	first := s[0].Close
	for _, c := range s[1:] {
		if c.Close != first {
			return false
		}
	}
	return true
}
