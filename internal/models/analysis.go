package models

type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// Status объясняет, почему результат анализа нейтральный.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusInvalidInput     Status = "invalid_input"
	StatusFlat             Status = "flat"
)

const NeutralScore = 5.0

type Trend struct {
	Score     int       `json:"score"` // 0..10
	Direction Direction `json:"direction"`
	Momentum  float64   `json:"momentum"` // % за последние 10 свечей
}

func NeutralTrend() Trend {
	return Trend{Score: 5, Direction: DirectionNeutral}
}

type Risk struct {
	Volatility  float64 `json:"volatility"`   // %
	MaxDrawdown float64 `json:"max_drawdown"` // %
	Level       int     `json:"level"`        // 0..10
}

func NeutralRisk() Risk {
	return Risk{Level: 5}
}

type FibLevel struct {
	Name  string  `json:"name"`
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

type StochasticResult struct {
	K []float64
	D []float64
}

// IndicatorSet: всё, что нужно для рисования графика: серии отдаются как есть, без копий.
type IndicatorSet struct {
	Closes     []float64
	SMA        map[int][]float64
	RSI        []float64
	MACD       MACDResult
	Bollinger  BollingerResult
	Stochastic StochasticResult
	Fibonacci  []FibLevel
	Trend      Trend
	Risk       Risk
}

type EntryPoint struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

type EntryExitPlan struct {
	Action     Side         `json:"action"`
	Confidence int          `json:"confidence"`
	Entries    []EntryPoint `json:"entries,omitempty"`
	StopLoss   float64      `json:"stop_loss,omitempty"`
	TakeProfit float64      `json:"take_profit,omitempty"`
	RiskReward float64      `json:"risk_reward,omitempty"`
}

// Score: итог композитного скоринга.
type Score struct {
	Value          float64 `json:"value"` // 0..10
	Recommendation string  `json:"recommendation"`
	Fallback       bool    `json:"fallback,omitempty"`
}

// Fault: ошибка одного индикатора, поглощённая на месте.
type Fault struct {
	Indicator string `json:"indicator"`
	Err       string `json:"error"`
}

type AnalysisResult struct {
	Symbol     string
	Timeframe  string
	Price      float64
	Status     Status
	Indicators IndicatorSet
	Signals    []Signal
	Plan       EntryExitPlan
	Score      Score
	Faults     []Fault
}

func (r AnalysisResult) OK() bool { return r.Status == StatusOK }

// LastValue returns the last finite value of a series.
func LastValue(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if v != v { // NaN
		return 0, false
	}
	return v, true
}

// AddFault records an indicator failure absorbed during analysis.
func (r *AnalysisResult) AddFault(indicator string, err error) {
	if err == nil {
		return
	}
	r.Faults = append(r.Faults, Fault{Indicator: indicator, Err: err.Error()})
}
