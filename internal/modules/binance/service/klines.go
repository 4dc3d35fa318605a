package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"crypto_bot/internal/models"
)

const maxKlines = 1000

// Candles: OHLCV из /klines, от старых к новым. Реализует ta.SeriesSource.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) (models.Series, error) {
	if limit <= 0 || limit > maxKlines {
		limit = maxKlines
	}

	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, takerBase, takerQuote, ignore]
	var rows [][]any
	if err := c.get(ctx, "/klines", q, &rows); err != nil {
		return nil, err
	}

	out := make(models.Series, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, errors.Errorf("kline %d: %d fields", i, len(row))
		}
		ts, err := num(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "kline %d open time", i)
		}

		var vals [5]float64
		for j := 1; j <= 5; j++ {
			v, err := num(row[j])
			if err != nil {
				return nil, errors.Wrapf(err, "kline %d field %d", i, j)
			}
			vals[j-1] = v
		}

		out = append(out, models.Candle{
			Time:   time.UnixMilli(int64(ts)).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}

// num: Binance отдаёт цены строками, а время числом.
func num(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, errors.Errorf("unexpected %T", v)
	}
}
