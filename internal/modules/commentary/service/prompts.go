package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"crypto_bot/internal/models"
	"crypto_bot/internal/ta"
)

const (
	DefaultPredictDays = 7
	MaxPredictDays     = 30

	// PredictCandles: сколько дневных свечей нужно для прогноза.
	PredictCandles = 60
)

// ClampDays приводит горизонт прогноза к 1..30, ноль и мусор дают 7.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultPredictDays
	case days > MaxPredictDays:
		return MaxPredictDays
	default:
		return days
	}
}

// Snapshot: сжатое состояние рынка для промпта.
type Snapshot struct {
	Symbol       string
	Price        float64
	Change7dPct  float64
	RSI          float64
	MACDBullish  bool
	VolumeRising bool
}

// SnapshotFrom считает снимок по дневным свечам: изменение за 7 дней, RSI, MACD, тренд объёма.
func SnapshotFrom(symbol string, s models.Series) (Snapshot, error) {
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	if len(s) < 8 {
		return Snapshot{}, errors.Wrapf(ta.ErrInsufficientData, "snapshot: need 8 candles, have %d", len(s))
	}

	closes := s.Closes()
	last := closes[len(closes)-1]
	weekAgo := closes[len(closes)-8]

	snap := Snapshot{
		Symbol:      symbol,
		Price:       last,
		Change7dPct: (last - weekAgo) / weekAgo * 100,
		RSI:         50,
	}

	if rsi, err := ta.RSI(closes, ta.RSIWindow); err == nil {
		if v, ok := models.LastValue(rsi); ok {
			snap.RSI = v
		}
	}
	if m, err := ta.MACD(closes, ta.MACDFast, ta.MACDSlow, ta.MACDSignal); err == nil {
		line, ok1 := models.LastValue(m.Line)
		sig, ok2 := models.LastValue(m.Signal)
		snap.MACDBullish = ok1 && ok2 && line > sig
	}

	vols := s.Volumes()
	snap.VolumeRising = mean(tail(vols, 3)) > mean(tail(vols, 20))
	return snap, nil
}

// Predict просит у модели вероятностный прогноз на days дней.
func (c *Client) Predict(ctx context.Context, snap Snapshot, days int) (string, error) {
	days = ClampDays(days)

	macd := "медвежий"
	if snap.MACDBullish {
		macd = "бычий"
	}
	volume := "снижается"
	if snap.VolumeRising {
		volume = "растёт"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Сделай прогноз цены %s на %d дн.\n\n", snap.Symbol, days)
	b.WriteString("Текущие данные:\n")
	fmt.Fprintf(&b, "- Цена: $%.4f\n", snap.Price)
	fmt.Fprintf(&b, "- Изменение за 7 дней: %.2f%%\n", snap.Change7dPct)
	fmt.Fprintf(&b, "- RSI: %.1f\n", snap.RSI)
	fmt.Fprintf(&b, "- MACD: %s\n", macd)
	fmt.Fprintf(&b, "- Объём: %s\n\n", volume)
	b.WriteString("Ответь по пунктам:\n")
	b.WriteString("1. Целевой диапазон цены (min-max)\n")
	b.WriteString("2. Вероятность в процентах\n")
	b.WriteString("3. Три главных аргумента\n")
	b.WriteString("4. Риски\n")
	b.WriteString("5. Ключевые уровни\n\n")
	b.WriteString("Будь объективен, вместо точной цены используй вероятностные диапазоны.")

	return c.Complete(ctx, analystRole, b.String(), 500)
}

// Comment: короткий комментарий к результату технического анализа.
func (c *Client) Comment(ctx context.Context, res models.AnalysisResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Дай короткий технический комментарий по %s (%s).\n", res.Symbol, res.Timeframe)
	fmt.Fprintf(&b, "Цена: $%.4f\n", res.Price)
	if rsi, ok := models.LastValue(res.Indicators.RSI); ok {
		fmt.Fprintf(&b, "RSI: %.1f\n", rsi)
	}
	fmt.Fprintf(&b, "Тренд: %s (%d/10)\n", res.Indicators.Trend.Direction, res.Indicators.Trend.Score)
	fmt.Fprintf(&b, "Итоговая оценка: %.1f/10, %s\n", res.Score.Value, res.Score.Recommendation)
	for _, s := range res.Signals {
		fmt.Fprintf(&b, "- %s %s: %s (%d/10)\n", s.Type, s.Indicator, s.Reason, s.Strength)
	}
	b.WriteString("Ответь кратко, 3-5 предложений.")

	return c.Complete(ctx, analystRole, b.String(), 300)
}

func tail(v []float64, n int) []float64 {
	if len(v) <= n {
		return v
	}
	return v[len(v)-n:]
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
