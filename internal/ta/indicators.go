package ta

import (
	"math"

	"crypto_bot/internal/models"

	talib "github.com/markcheno/go-talib"
)

const (
	RSIWindow = 14

	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	BollingerWindow = 20
	BollingerK      = 2.0

	StochasticK = 14
	StochasticD = 3

	FibonacciLookback = 50
)

// bandEpsilon: ширина полос, ниже которой считаем их схлопнувшимися.
const bandEpsilon = 1e-9

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// nanLead помечает позиции до заполнения окна как отсутствующие.
// talib оставляет там нули, а ноль от настоящего значения не отличить.
func nanLead(series []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(series); i++ {
		series[i] = math.NaN()
	}
	return series
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SMA: простая скользящая средняя.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, invalid("SMA", "period %d", period)
	}
	if len(values) < period {
		return nanSeries(len(values)), insufficient("SMA", period, len(values))
	}
	return nanLead(talib.Sma(values, period), period-1), nil
}

// RSI считает индекс относительной силы на скользящих средних приростов и потерь.
// Первое значение на позиции window: до неё окно приращений не заполнено.
func RSI(closes []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, invalid("RSI", "window %d", window)
	}
	out := nanSeries(len(closes))
	if len(closes) < window+1 {
		return out, insufficient("RSI", window+1, len(closes))
	}

	for i := window; i < len(closes); i++ {
		var gain, loss float64
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain := gain / float64(window)
		avgLoss := loss / float64(window)

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			out[i] = clampFloat(100-100/(1+avgGain/avgLoss), 0, 100)
		}
	}
	return out, nil
}

// MACD: EMA(fast) − EMA(slow), сигнальная линия EMA(signal) от неё.
func MACD(closes []float64, fast, slow, signal int) (models.MACDResult, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return models.MACDResult{}, invalid("MACD", "periods %d/%d/%d", fast, slow, signal)
	}
	lookback := (slow - 1) + (signal - 1)
	if len(closes) < lookback+1 {
		n := len(closes)
		return models.MACDResult{
			Line:      nanSeries(n),
			Signal:    nanSeries(n),
			Histogram: nanSeries(n),
		}, insufficient("MACD", lookback+1, n)
	}

	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	return models.MACDResult{
		Line:      nanLead(line, lookback),
		Signal:    nanLead(sig, lookback),
		Histogram: nanLead(hist, lookback),
	}, nil
}

// Bollinger: SMA(window) ± k·stddev. Нулевая ширина схлопывает полосы в среднюю.
func Bollinger(closes []float64, window int, k float64) (models.BollingerResult, error) {
	if window <= 1 || k <= 0 {
		return models.BollingerResult{}, invalid("Bollinger", "window %d k %.2f", window, k)
	}
	if len(closes) < window {
		n := len(closes)
		return models.BollingerResult{
			Upper:  nanSeries(n),
			Middle: nanSeries(n),
			Lower:  nanSeries(n),
		}, insufficient("Bollinger", window, n)
	}

	upper, middle, lower := talib.BBands(closes, window, k, k, talib.SMA)
	nanLead(upper, window-1)
	nanLead(middle, window-1)
	nanLead(lower, window-1)

	for i := window - 1; i < len(closes); i++ {
		if upper[i]-lower[i] <= bandEpsilon*math.Max(1, math.Abs(middle[i])) {
			upper[i] = middle[i]
			lower[i] = middle[i]
		}
	}
	return models.BollingerResult{Upper: upper, Middle: middle, Lower: lower}, nil
}

// Stochastic: %K по диапазону kPeriod свечей, %D = SMA(%K, dPeriod).
// Нулевой диапазон даёт %K = 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (models.StochasticResult, error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return models.StochasticResult{}, invalid("Stochastic", "periods %d/%d", kPeriod, dPeriod)
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return models.StochasticResult{}, invalid("Stochastic", "length mismatch %d/%d/%d", len(highs), len(lows), n)
	}

	k := nanSeries(n)
	d := nanSeries(n)
	need := kPeriod + dPeriod - 1
	if n < need {
		return models.StochasticResult{K: k, D: d}, insufficient("Stochastic", need, n)
	}

	hh := talib.Max(highs, kPeriod)
	ll := talib.Min(lows, kPeriod)
	for i := kPeriod - 1; i < n; i++ {
		rng := hh[i] - ll[i]
		if rng <= 0 {
			k[i] = 50
			continue
		}
		k[i] = clampFloat((closes[i]-ll[i])/rng*100, 0, 100)
	}

	smoothed := talib.Sma(k[kPeriod-1:], dPeriod)
	for i := dPeriod - 1; i < len(smoothed); i++ {
		d[kPeriod-1+i] = smoothed[i]
	}
	return models.StochasticResult{K: k, D: d}, nil
}

var fibRatios = []struct {
	name  string
	ratio float64
}{
	{"0%", 0},
	{"23.6%", 0.236},
	{"38.2%", 0.382},
	{"50%", 0.5},
	{"61.8%", 0.618},
	{"78.6%", 0.786},
	{"100%", 1},
}

// Fibonacci строит уровни коррекции по максимуму и минимуму последних lookback свечей.
// Уровни упорядочены от 0% (максимум) к 100% (минимум).
func Fibonacci(series models.Series, lookback int) ([]models.FibLevel, error) {
	if lookback <= 0 {
		return nil, invalid("Fibonacci", "lookback %d", lookback)
	}
	if len(series) == 0 {
		return nil, insufficient("Fibonacci", 1, 0)
	}

	recent := series.Tail(lookback)
	high, low := math.Inf(-1), math.Inf(1)
	for _, c := range recent {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	if high < low {
		return nil, invalid("Fibonacci", "high %.8f below low %.8f", high, low)
	}

	diff := high - low
	levels := make([]models.FibLevel, 0, len(fibRatios))
	for _, r := range fibRatios {
		price := high - diff*r.ratio
		if r.ratio == 1 {
			price = low
		}
		levels = append(levels, models.FibLevel{Name: r.name, Ratio: r.ratio, Price: price})
	}
	return levels, nil
}

// FibZone: уровень Фибоначчи относительно текущей цены.
type FibZone struct {
	Level       models.FibLevel
	Support     bool    // уровень ниже цены
	DistancePct float64 // |price − level| / price · 100
	Near        bool    // цена в пределах FibNearPct от уровня
}

const FibNearPct = 2.0

// FibZones размечает уровни как поддержку или сопротивление для цены.
func FibZones(levels []models.FibLevel, price float64) []FibZone {
	if price <= 0 {
		return nil
	}
	out := make([]FibZone, 0, len(levels))
	for _, l := range levels {
		dist := math.Abs(price-l.Price) / price * 100
		out = append(out, FibZone{
			Level:       l,
			Support:     price > l.Price,
			DistancePct: dist,
			Near:        dist < FibNearPct,
		})
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
