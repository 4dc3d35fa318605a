package ta

import (
	"math"

	"crypto_bot/internal/models"
)

const (
	RecStrongBuy  = "STRONG BUY"
	RecBuy        = "BUY"
	RecWeakBuy    = "WEAK BUY"
	RecHold       = "HOLD"
	RecWeakSell   = "WEAK SELL"
	RecSell       = "SELL"
	RecStrongSell = "STRONG SELL"
)

const (
	signalWeight = 0.4
	trendWeight  = 0.4
	riskWeight   = 0.2
)

// CompositeScore сводит сигналы, тренд и риск в одну оценку 0..10.
func CompositeScore(signals []models.Signal, trend models.Trend, risk models.Risk) models.Score {
	buy, sell := models.StrengthSums(signals)
	signalScore := clampFloat(float64(buy-sell), -10, 10)
	riskScore := float64(10 - risk.Level)

	weighted := signalWeight*signalScore + trendWeight*float64(trend.Score) + riskWeight*riskScore
	normalized := clampFloat((weighted+10)/2, 0, 10)
	if !isFinite(normalized) {
		return NeutralScore()
	}

	return models.Score{
		Value:          normalized,
		Recommendation: Recommend(normalized, signals),
	}
}

// NeutralScore: оценка по умолчанию, когда считать нечего.
func NeutralScore() models.Score {
	return models.Score{Value: models.NeutralScore, Recommendation: RecHold, Fallback: true}
}

// Recommend переводит оценку в метку. На границе 6..7 решает перевес числа
// сигналов на покупку над сигналами на продажу.
func Recommend(score float64, signals []models.Signal) string {
	if math.IsNaN(score) {
		return RecHold
	}
	buys, sells := models.SideCounts(signals)

	switch {
	case score >= 8:
		return RecStrongBuy
	case score >= 7:
		return RecBuy
	case score >= 6:
		if buys > sells {
			return RecWeakBuy
		}
		return RecHold
	case score >= 4:
		return RecHold
	case score >= 3:
		return RecWeakSell
	case score >= 2:
		return RecSell
	default:
		return RecStrongSell
	}
}

// RecommendationRank упорядочивает метки от самой медвежьей к самой бычьей.
func RecommendationRank(label string) int {
	switch label {
	case RecStrongSell:
		return 0
	case RecSell:
		return 1
	case RecWeakSell:
		return 2
	case RecHold:
		return 3
	case RecWeakBuy:
		return 4
	case RecBuy:
		return 5
	case RecStrongBuy:
		return 6
	}
	return 3
}
