package ta

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"crypto_bot/internal/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes []float64) models.Series {
	out := make(models.Series, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   t0.Add(time.Duration(i) * 24 * time.Hour),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

// linear: n закрытий равномерно от from до to.
func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price *= 1 + (r.Float64()-0.5)*0.08
		out[i] = price
	}
	return out
}

func randomSeries(seed int64, n int) models.Series {
	r := rand.New(rand.NewSource(seed))
	closes := randomWalk(seed, n)
	out := make(models.Series, n)
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   t0.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c * (1 + r.Float64()*0.03),
			Low:    c * (1 - r.Float64()*0.03),
			Close:  c,
			Volume: 500 + r.Float64()*500,
		}
	}
	return out
}

type fakeSource struct {
	series map[string]models.Series // key: symbol + "/" + interval
	calls  chan string
}

func (f *fakeSource) Candles(ctx context.Context, symbol, interval string, limit int) (models.Series, error) {
	if f.calls != nil {
		f.calls <- symbol + "/" + interval
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := f.series[symbol+"/"+interval]
	if !ok {
		return nil, errors.New("no data")
	}
	return s, nil
}
