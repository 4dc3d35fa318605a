package ta

import (
	"fmt"
	"math"

	"crypto_bot/internal/models"
)

const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0

	stochOversold   = 20.0
	stochOverbought = 80.0
	stochMinimum    = 3

	macdCrossStrength      = 7
	bollingerTouchStrength = 6

	// Фильтр по тренду: RSI и Stochastic не дают SELL при оценке тренда >= strongUptrend
	// и не дают BUY при оценке <= strongDowntrend. Перекупленность на сильном росте
	// (и перепроданность на сильном падении) здесь считается продолжением тренда.
	// MACD и Bollinger фильтр не затрагивает.
	strongUptrend   = 8
	strongDowntrend = 2
)

// SignalInput: последние значения индикаторов одной серии.
type SignalInput struct {
	Close      float64
	RSI        []float64
	MACD       models.MACDResult
	Bollinger  models.BollingerResult
	Stochastic models.StochasticResult
	// Trend == nil: фильтр по тренду не применяется.
	Trend *models.Trend
}

// InputFromSet собирает SignalInput из посчитанного набора индикаторов.
func InputFromSet(set models.IndicatorSet, price float64) SignalInput {
	trend := set.Trend
	return SignalInput{
		Close:      price,
		RSI:        set.RSI,
		MACD:       set.MACD,
		Bollinger:  set.Bollinger,
		Stochastic: set.Stochastic,
		Trend:      &trend,
	}
}

// GenerateSignals прогоняет последние значения индикаторов через таблицу порогов.
// Отсутствующие (NaN) значения сигналов не дают.
func GenerateSignals(in SignalInput) []models.Signal {
	var out []models.Signal

	if s, ok := rsiSignal(in); ok {
		out = append(out, s)
	}
	if s, ok := macdSignal(in.MACD); ok {
		out = append(out, s)
	}
	if s, ok := bollingerSignal(in.Close, in.Bollinger); ok {
		out = append(out, s)
	}
	if s, ok := stochasticSignal(in); ok {
		out = append(out, s)
	}
	return out
}

func rsiSignal(in SignalInput) (models.Signal, bool) {
	rsi, ok := models.LastValue(in.RSI)
	if !ok {
		return models.Signal{}, false
	}

	switch {
	case rsi < rsiOversold && !againstDowntrend(in.Trend):
		strength := models.ClampStrength(roundInt((rsiOversold - rsi) / 3))
		return models.Signal{
			Type:       models.SideBuy,
			Indicator:  models.IndicatorRSI,
			Reason:     fmt.Sprintf("Перепроданность (RSI: %.1f)", rsi),
			Strength:   strength,
			Confidence: rsiConfidence(strength),
		}, true
	case rsi > rsiOverbought && !againstUptrend(in.Trend):
		strength := models.ClampStrength(roundInt((rsi - rsiOverbought) / 3))
		return models.Signal{
			Type:       models.SideSell,
			Indicator:  models.IndicatorRSI,
			Reason:     fmt.Sprintf("Перекупленность (RSI: %.1f)", rsi),
			Strength:   strength,
			Confidence: rsiConfidence(strength),
		}, true
	}
	return models.Signal{}, false
}

func rsiConfidence(strength int) models.Confidence {
	switch {
	case strength >= 7:
		return models.ConfidenceHigh
	case strength >= 5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// macdSignal ловит пересечение линии MACD и сигнальной на последней свече.
func macdSignal(m models.MACDResult) (models.Signal, bool) {
	n := len(m.Line)
	if n < 2 || len(m.Signal) != n {
		return models.Signal{}, false
	}
	cur, sig := m.Line[n-1], m.Signal[n-1]
	prev, prevSig := m.Line[n-2], m.Signal[n-2]
	if !isFinite(cur) || !isFinite(sig) || !isFinite(prev) || !isFinite(prevSig) {
		return models.Signal{}, false
	}

	switch {
	case cur > sig && prev <= prevSig:
		return models.Signal{
			Type:       models.SideBuy,
			Indicator:  models.IndicatorMACD,
			Reason:     "MACD пересёк сигнальную линию вверх",
			Strength:   macdCrossStrength,
			Confidence: models.ConfidenceHigh,
		}, true
	case cur < sig && prev >= prevSig:
		return models.Signal{
			Type:       models.SideSell,
			Indicator:  models.IndicatorMACD,
			Reason:     "MACD пересёк сигнальную линию вниз",
			Strength:   macdCrossStrength,
			Confidence: models.ConfidenceHigh,
		}, true
	}
	return models.Signal{}, false
}

func bollingerSignal(price float64, bb models.BollingerResult) (models.Signal, bool) {
	upper, okU := models.LastValue(bb.Upper)
	lower, okL := models.LastValue(bb.Lower)
	if !okU || !okL || !isFinite(price) {
		return models.Signal{}, false
	}
	// схлопнутые полосы ничего не говорят
	if upper-lower <= 0 {
		return models.Signal{}, false
	}

	switch {
	case price <= lower:
		return models.Signal{
			Type:       models.SideBuy,
			Indicator:  models.IndicatorBollinger,
			Reason:     "Касание нижней полосы Боллинджера",
			Strength:   bollingerTouchStrength,
			Confidence: models.ConfidenceMedium,
		}, true
	case price >= upper:
		return models.Signal{
			Type:       models.SideSell,
			Indicator:  models.IndicatorBollinger,
			Reason:     "Касание верхней полосы Боллинджера",
			Strength:   bollingerTouchStrength,
			Confidence: models.ConfidenceMedium,
		}, true
	}
	return models.Signal{}, false
}

func stochasticSignal(in SignalInput) (models.Signal, bool) {
	k, okK := models.LastValue(in.Stochastic.K)
	d, okD := models.LastValue(in.Stochastic.D)
	if !okK || !okD {
		return models.Signal{}, false
	}

	switch {
	case k < stochOversold && d < stochOversold && !againstDowntrend(in.Trend):
		depth := (stochOversold - math.Min(k, d)) / 2
		return models.Signal{
			Type:       models.SideBuy,
			Indicator:  models.IndicatorStochastic,
			Reason:     fmt.Sprintf("Стохастик в зоне перепроданности (%%K %.1f)", k),
			Strength:   stochStrength(depth),
			Confidence: models.ConfidenceMedium,
		}, true
	case k > stochOverbought && d > stochOverbought && !againstUptrend(in.Trend):
		depth := (math.Min(k, d) - stochOverbought) / 2
		return models.Signal{
			Type:       models.SideSell,
			Indicator:  models.IndicatorStochastic,
			Reason:     fmt.Sprintf("Стохастик в зоне перекупленности (%%K %.1f)", k),
			Strength:   stochStrength(depth),
			Confidence: models.ConfidenceMedium,
		}, true
	}
	return models.Signal{}, false
}

func stochStrength(depth float64) int {
	s := roundInt(depth)
	if s < stochMinimum {
		s = stochMinimum
	}
	return models.ClampStrength(s)
}

// againstUptrend: сигнал на продажу от осциллятора идёт против сильного роста.
func againstUptrend(t *models.Trend) bool {
	return t != nil && t.Score >= strongUptrend
}

func againstDowntrend(t *models.Trend) bool {
	return t != nil && t.Score <= strongDowntrend
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
