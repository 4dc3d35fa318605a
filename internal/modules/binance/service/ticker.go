package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"crypto_bot/internal/models"
)

const quoteAsset = "USDT"

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

func (t ticker24h) model() (models.Ticker24h, error) {
	fields := []string{t.LastPrice, t.PriceChangePercent, t.Volume, t.QuoteVolume, t.HighPrice, t.LowPrice}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.Ticker24h{}, errors.Wrapf(err, "%s field %d", t.Symbol, i)
		}
		vals[i] = v
	}
	return models.Ticker24h{
		Symbol:      t.Symbol,
		LastPrice:   vals[0],
		ChangePct:   vals[1],
		Volume:      vals[2],
		QuoteVolume: vals[3],
		High:        vals[4],
		Low:         vals[5],
	}, nil
}

// Price: последняя цена сделки.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	var tp tickerPrice
	if err := c.get(ctx, "/ticker/price", url.Values{"symbol": {strings.ToUpper(symbol)}}, &tp); err != nil {
		return 0, err
	}
	p, err := strconv.ParseFloat(tp.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "price %s", symbol)
	}
	return p, nil
}

// Stats24h: статистика за сутки по одной паре.
func (c *Client) Stats24h(ctx context.Context, symbol string) (models.Ticker24h, error) {
	var t ticker24h
	if err := c.get(ctx, "/ticker/24hr", url.Values{"symbol": {strings.ToUpper(symbol)}}, &t); err != nil {
		return models.Ticker24h{}, err
	}
	return t.model()
}

// TopByVolume: n USDT-пар с наибольшим оборотом в котируемой валюте за сутки.
func (c *Client) TopByVolume(ctx context.Context, n int) ([]models.Ticker24h, error) {
	if n <= 0 {
		return nil, nil
	}

	var all []ticker24h
	if err := c.get(ctx, "/ticker/24hr", nil, &all); err != nil {
		return nil, err
	}

	out := make([]models.Ticker24h, 0, len(all))
	for _, t := range all {
		if !strings.HasSuffix(t.Symbol, quoteAsset) {
			continue
		}
		m, err := t.model()
		if err != nil || m.LastPrice <= 0 {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
