package models

// Side: direction of a signal or a plan. HOLD is only used by plans.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

const (
	IndicatorRSI        = "RSI"
	IndicatorMACD       = "MACD"
	IndicatorBollinger  = "Bollinger"
	IndicatorStochastic = "Stochastic"
)

const (
	MinStrength = 0
	MaxStrength = 10
)

// Signal: one directional call derived from one indicator.
type Signal struct {
	Type       Side       `json:"type"`
	Indicator  string     `json:"indicator"`
	Reason     string     `json:"reason"`
	Strength   int        `json:"strength"` // 0..10
	Confidence Confidence `json:"confidence"`
	Timeframe  string     `json:"timeframe,omitempty"`
}

// ClampStrength keeps a strength inside [MinStrength, MaxStrength].
func ClampStrength(v int) int {
	if v < MinStrength {
		return MinStrength
	}
	if v > MaxStrength {
		return MaxStrength
	}
	return v
}

// StrengthSums returns Σstrength of BUY and SELL signals.
func StrengthSums(signals []Signal) (buy, sell int) {
	for _, s := range signals {
		switch s.Type {
		case SideBuy:
			buy += s.Strength
		case SideSell:
			sell += s.Strength
		}
	}
	return buy, sell
}

// SideCounts returns the number of BUY and SELL signals.
func SideCounts(signals []Signal) (buy, sell int) {
	for _, s := range signals {
		switch s.Type {
		case SideBuy:
			buy++
		case SideSell:
			sell++
		}
	}
	return buy, sell
}
