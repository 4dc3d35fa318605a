package ta

import (
	"github.com/pkg/errors"

	"crypto_bot/internal/models"
)

// MinCandles: самое длинное окно в конвейере (SMA50 для тренда).
const MinCandles = TrendMinCandles

// Analyze прогоняет одну серию через весь конвейер: индикаторы, сигналы,
// скоринг и план входа. Всегда возвращает заполненный результат: сбой одного
// индикатора попадает в Faults и заменяется нейтральным значением.
func Analyze(symbol, timeframe string, series models.Series) models.AnalysisResult {
	res := models.AnalysisResult{
		Symbol:    symbol,
		Timeframe: timeframe,
		Status:    models.StatusOK,
		Indicators: models.IndicatorSet{
			Trend: models.NeutralTrend(),
			Risk:  models.NeutralRisk(),
		},
		Signals: []models.Signal{},
		Plan:    models.EntryExitPlan{Action: models.SideHold},
		Score:   NeutralScore(),
	}

	if err := series.Validate(); err != nil {
		res.Status = models.StatusInvalidInput
		res.AddFault("series", err)
		return res
	}

	last, _ := series.Last()
	res.Price = last.Close
	res.Indicators = computeIndicators(series, &res)

	switch {
	case len(series) < MinCandles:
		res.Status = models.StatusInsufficientData
		return res
	case series.IsFlat():
		res.Status = models.StatusFlat
		return res
	}

	res.Signals = Consolidate(GenerateSignals(InputFromSet(res.Indicators, res.Price)))
	res.Score = CompositeScore(res.Signals, res.Indicators.Trend, res.Indicators.Risk)
	res.Plan = PlanEntryExit(series, res.Price, res.Indicators.Bollinger, res.Signals)
	return res
}

func computeIndicators(series models.Series, res *models.AnalysisResult) models.IndicatorSet {
	closes := series.Closes()
	set := models.IndicatorSet{
		Closes: closes,
		SMA:    MovingAverages(closes),
	}

	var err error
	if set.RSI, err = RSI(closes, RSIWindow); err != nil {
		res.AddFault(models.IndicatorRSI, err)
	}
	if set.MACD, err = MACD(closes, MACDFast, MACDSlow, MACDSignal); err != nil {
		res.AddFault(models.IndicatorMACD, err)
	}
	if set.Bollinger, err = Bollinger(closes, BollingerWindow, BollingerK); err != nil {
		res.AddFault(models.IndicatorBollinger, err)
	}
	if set.Stochastic, err = Stochastic(series.Highs(), series.Lows(), closes, StochasticK, StochasticD); err != nil {
		res.AddFault(models.IndicatorStochastic, err)
	}
	if set.Fibonacci, err = Fibonacci(series, FibonacciLookback); err != nil {
		res.AddFault("Fibonacci", err)
	}
	if set.Trend, err = TrendStrength(closes); err != nil {
		res.AddFault("Trend", err)
	}
	if set.Risk, err = RiskMetrics(closes); err != nil {
		res.AddFault("Risk", err)
	}
	return set
}

// IsInsufficient reports whether err comes from a too-short series.
func IsInsufficient(err error) bool { return errors.Is(err, ErrInsufficientData) }

// IsInvalid reports whether err comes from unusable input.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidInput) }
