package ta

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"crypto_bot/internal/models"
)

const (
	BreakoutInterval = "1d"
	BreakoutLimit    = 100
	BreakoutMinScore = 6.0
	BreakoutTop      = 6

	volumeSurgeRatio   = 1.5
	squeezeRatio       = 0.8
	resistanceNearPct  = 3.0
	rsiMomentumLow     = 50.0
	rsiMomentumHigh    = 65.0
	breakoutFanOut     = 4
	breakoutMaxReasons = 3
)

// BreakoutCandidates: монеты, которые проверяет скан пробоев.
var BreakoutCandidates = []string{"BTC", "ETH", "SOL", "ADA", "MATIC", "DOT", "AVAX", "LINK", "UNI", "ATOM"}

type BreakoutResult struct {
	Symbol      string
	Score       float64
	Reasons     []string
	Probability int
	TargetPct   float64
	RiskReward  float64
}

// BreakoutScore добавляет к композитной оценке дневной серии баллы за признаки пробоя:
// всплеск объёма, сжатие полос Боллинджера, близость сопротивления и умеренный RSI.
func BreakoutScore(symbol string, series models.Series) (BreakoutResult, error) {
	if err := series.Validate(); err != nil {
		return BreakoutResult{Symbol: symbol}, invalid("Breakout", "%v", err)
	}
	if len(series) < MinCandles {
		return BreakoutResult{Symbol: symbol}, insufficient("Breakout", MinCandles, len(series))
	}

	analysis := Analyze(symbol, BreakoutInterval, series)
	price := analysis.Price
	score := analysis.Score.Value
	var reasons []string

	volumes := series.Volumes()
	if avg := mean(tail(volumes, 20)); avg > 0 {
		if ratio := mean(tail(volumes, 3)) / avg; ratio > volumeSurgeRatio {
			score += 2
			reasons = append(reasons, fmt.Sprintf("Рост объёма (%.1fx)", ratio))
		}
	}

	if squeezed(analysis.Indicators.Bollinger) {
		score += 1.5
		reasons = append(reasons, "Сжатие полос Боллинджера")
	}

	if res := ResistanceLevels(series, price, PivotWindow); len(res) > 0 {
		if dist := (res[0] - price) / price * 100; dist > 0 && dist < resistanceNearPct {
			score += 2
			reasons = append(reasons, "Тест сопротивления")
		}
	}

	if rsi, ok := models.LastValue(analysis.Indicators.RSI); ok && rsi > rsiMomentumLow && rsi < rsiMomentumHigh {
		score += 1
		reasons = append(reasons, "Импульс RSI")
	}

	score = math.Min(10, score)
	target := math.Min(score*2, 15)
	probability := math.Min(score*8, 80)

	stop := firstOr(SupportLevels(series, price, PivotWindow), price*(1-fallbackStopPct))
	riskPct := (price - stop) / price * 100

	if len(reasons) > breakoutMaxReasons {
		reasons = reasons[:breakoutMaxReasons]
	}
	return BreakoutResult{
		Symbol:      symbol,
		Score:       round1(score),
		Reasons:     reasons,
		Probability: int(math.Round(probability)),
		TargetPct:   round1(target),
		RiskReward:  round1(target / math.Max(riskPct, 1)),
	}, nil
}

// squeezed: текущая относительная ширина полос меньше 0.8 от средней за 20 свечей.
func squeezed(bb models.BollingerResult) bool {
	widths := make([]float64, 0, len(bb.Middle))
	for i := range bb.Middle {
		if !isFinite(bb.Upper[i]) || !isFinite(bb.Middle[i]) || bb.Middle[i] == 0 {
			continue
		}
		widths = append(widths, (bb.Upper[i]-bb.Lower[i])/bb.Middle[i])
	}
	if len(widths) == 0 {
		return false
	}
	current := widths[len(widths)-1]
	return current < mean(tail(widths, 20))*squeezeRatio
}

// ScanBreakouts проверяет символы параллельно и оставляет лучших с оценкой от 6.
func ScanBreakouts(ctx context.Context, src SeriesSource, symbols []string) ([]BreakoutResult, error) {
	results := make([]*BreakoutResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(breakoutFanOut)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			series, err := src.Candles(gctx, sym, BreakoutInterval, BreakoutLimit)
			if err != nil {
				return nil
			}
			r, err := BreakoutScore(sym, series)
			if err != nil {
				return nil
			}
			results[i] = &r
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]BreakoutResult, 0, len(results))
	for _, r := range results {
		if r != nil && r.Score >= BreakoutMinScore {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > BreakoutTop {
		out = out[:BreakoutTop]
	}
	return out, nil
}

func tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
