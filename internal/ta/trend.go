package ta

import (
	"math"

	"crypto_bot/internal/models"
)

const (
	MomentumLookback = 10
	TrendMinCandles  = 50

	maxTrendScore = 10
	bullishFrom   = 6
	bearishUpTo   = 3
)

// SMAPeriods: набор средних для тренда и для графика.
var SMAPeriods = []int{5, 10, 20, 50}

// TrendStrength оценивает тренд по положению цены относительно SMA5/10/20/50
// (по 2 балла) и порядку самих средних SMA5>SMA10, SMA10>SMA20 (по 1 баллу).
func TrendStrength(closes []float64) (models.Trend, error) {
	if len(closes) < TrendMinCandles {
		return models.NeutralTrend(), insufficient("Trend", TrendMinCandles, len(closes))
	}

	price := closes[len(closes)-1]
	ref := closes[len(closes)-MomentumLookback]
	if price <= 0 || ref <= 0 {
		return models.NeutralTrend(), invalid("Trend", "non-positive close")
	}

	// на плоском участке тренда нет, сравнения средних ничего не значат
	if flat(closes[len(closes)-TrendMinCandles:]) {
		return models.NeutralTrend(), nil
	}

	last := make(map[int]float64, len(SMAPeriods))
	for _, p := range SMAPeriods {
		sma, err := SMA(closes, p)
		if err != nil {
			return models.NeutralTrend(), err
		}
		last[p] = sma[len(sma)-1]
	}

	score := 0
	for _, p := range SMAPeriods {
		if price > last[p] {
			score += 2
		}
	}
	if last[5] > last[10] {
		score++
	}
	if last[10] > last[20] {
		score++
	}
	if score > maxTrendScore {
		score = maxTrendScore
	}

	return models.Trend{
		Score:     score,
		Direction: directionFor(score),
		Momentum:  (price - ref) / ref * 100,
	}, nil
}

func directionFor(score int) models.Direction {
	switch {
	case score >= bullishFrom:
		return models.DirectionBullish
	case score <= bearishUpTo:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

func flat(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// MovingAverages считает набор SMA для графика. Короткая серия даёт NaN-серии.
func MovingAverages(closes []float64) map[int][]float64 {
	out := make(map[int][]float64, len(SMAPeriods))
	for _, p := range SMAPeriods {
		sma, _ := SMA(closes, p)
		out[p] = sma
	}
	return out
}

const (
	highRiskVolatility   = 8.0
	highRiskDrawdown     = 20.0
	mediumRiskVolatility = 5.0
	mediumRiskDrawdown   = 10.0
)

// RiskMetrics: волатильность: выборочное стандартное отклонение процентных
// доходностей, просадка: максимальное падение от текущего пика.
func RiskMetrics(closes []float64) (models.Risk, error) {
	if len(closes) < 3 {
		return models.NeutralRisk(), insufficient("Risk", 3, len(closes))
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			return models.NeutralRisk(), invalid("Risk", "non-positive close at %d", i-1)
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	volatility := math.Sqrt(ss/float64(len(returns)-1)) * 100

	peak := closes[0]
	var maxDD float64
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if dd := (peak - c) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}

	level := 3
	switch {
	case volatility > highRiskVolatility || maxDD > highRiskDrawdown:
		level = 8
	case volatility > mediumRiskVolatility || maxDD > mediumRiskDrawdown:
		level = 6
	}

	return models.Risk{Volatility: volatility, MaxDrawdown: maxDD, Level: level}, nil
}
