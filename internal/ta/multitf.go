package ta

import (
	"context"

	"golang.org/x/sync/errgroup"

	"crypto_bot/internal/models"
)

// SeriesSource отдаёт свечи от старых к новым; последняя может быть ещё не закрыта,
// её close считается текущей ценой. Ошибка означает «серии нет», частичных серий не бывает.
type SeriesSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) (models.Series, error)
}

type Frame struct {
	Interval string
	Limit    int
}

// DefaultFrames: глубина истории под каждый таймфрейм.
var DefaultFrames = []Frame{
	{Interval: "1h", Limit: 168},
	{Interval: "4h", Limit: 168},
	{Interval: "1d", Limit: 100},
	{Interval: "1w", Limit: 52},
}

// SignalFrames: таймфреймы для сводки сигналов.
var SignalFrames = []Frame{
	{Interval: "1h", Limit: 100},
	{Interval: "4h", Limit: 100},
	{Interval: "1d", Limit: 100},
}

// LimitFor returns the default history depth for an interval.
func LimitFor(interval string) int {
	for _, f := range DefaultFrames {
		if f.Interval == interval {
			return f.Limit
		}
	}
	return 100
}

type FrameResult struct {
	Frame  Frame
	Result models.AnalysisResult
}

// MultiResult: анализ по таймфреймам в порядке запроса. Таймфреймы без данных в Missing.
type MultiResult struct {
	Symbol  string
	Frames  []FrameResult
	Missing []string
}

// MultiTimeframe анализирует каждый таймфрейм в своей горутине.
// Отмена ctx прерывает только загрузку свечей.
func MultiTimeframe(ctx context.Context, src SeriesSource, symbol string, frames []Frame) (MultiResult, error) {
	if len(frames) == 0 {
		frames = DefaultFrames
	}

	results := make([]*models.AnalysisResult, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range frames {
		i, f := i, f
		g.Go(func() error {
			series, err := src.Candles(gctx, symbol, f.Interval, f.Limit)
			if err != nil || len(series) == 0 {
				// таймфрейм просто выпадает, остальные считаем дальше
				return nil
			}
			r := Analyze(symbol, f.Interval, series)
			results[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return MultiResult{Symbol: symbol}, err
	}

	out := MultiResult{Symbol: symbol}
	for i, r := range results {
		if r == nil {
			out.Missing = append(out.Missing, frames[i].Interval)
			continue
		}
		out.Frames = append(out.Frames, FrameResult{Frame: frames[i], Result: *r})
	}
	return out, nil
}

// Average: средняя оценка по таймфреймам, 5 если считать не из чего.
func (m MultiResult) Average() float64 {
	if len(m.Frames) == 0 {
		return models.NeutralScore
	}
	var sum float64
	for _, f := range m.Frames {
		sum += f.Result.Score.Value
	}
	return sum / float64(len(m.Frames))
}

// Strongest: таймфрейм с максимальной оценкой; при равенстве побеждает более ранний.
func (m MultiResult) Strongest() (FrameResult, bool) {
	if len(m.Frames) == 0 {
		return FrameResult{}, false
	}
	best := m.Frames[0]
	for _, f := range m.Frames[1:] {
		if f.Result.Score.Value > best.Result.Score.Value {
			best = f
		}
	}
	return best, true
}

// SignalSummary: сигналы нескольких таймфреймов после слияния.
type SignalSummary struct {
	Symbol   string
	Signals  []models.Signal
	Bullish  int
	Bearish  int
	Missing  []string
	Analyzed int
}

// CollectSignals собирает сигналы по таймфреймам, помечает их таймфреймом и сливает.
func CollectSignals(ctx context.Context, src SeriesSource, symbol string, frames []Frame) (SignalSummary, error) {
	if len(frames) == 0 {
		frames = SignalFrames
	}
	multi, err := MultiTimeframe(ctx, src, symbol, frames)
	if err != nil {
		return SignalSummary{Symbol: symbol}, err
	}

	var all []models.Signal
	for _, f := range multi.Frames {
		for _, s := range f.Result.Signals {
			s.Timeframe = f.Frame.Interval
			all = append(all, s)
		}
	}

	merged := Consolidate(all)
	bull, bear := models.StrengthSums(merged)
	return SignalSummary{
		Symbol:   symbol,
		Signals:  merged,
		Bullish:  bull,
		Bearish:  bear,
		Missing:  multi.Missing,
		Analyzed: len(multi.Frames),
	}, nil
}
