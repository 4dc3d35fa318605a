package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_bot/internal/modules/config"
)

const exchangeInfoBody = `{"symbols":[
 {"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
 {"symbol":"ETHUSDT","status":"TRADING","baseAsset":"ETH","quoteAsset":"USDT"},
 {"symbol":"ETHFIUSDT","status":"TRADING","baseAsset":"ETHFI","quoteAsset":"USDT"},
 {"symbol":"DOGEUSDT","status":"TRADING","baseAsset":"DOGE","quoteAsset":"USDT"},
 {"symbol":"LUNAUSDT","status":"BREAK","baseAsset":"LUNA","quoteAsset":"USDT"},
 {"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC"}
]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Binance.RESTURL = srv.URL
	cfg.Binance.Timeout = 2 * time.Second
	cfg.Aliases = map[string]string{"bitcoin": "BTC", "эфир": "ETH", "luna": "LUNA"}
	return NewClient(cfg)
}

func TestCandles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "4h", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.5","110","99","105","1234.5",1700014399999,"0",10,"0","0","0"],
			[1700014400000,"105","112","104","111","999",1700028799999,"0",10,"0","0","0"]
		]`))
	})

	s, err := c.Candles(context.Background(), "btcusdt", "4h", 2)
	require.NoError(t, err)
	require.Len(t, s, 2)

	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), s[0].Time)
	assert.Equal(t, 100.5, s[0].Open)
	assert.Equal(t, 110.0, s[0].High)
	assert.Equal(t, 99.0, s[0].Low)
	assert.Equal(t, 105.0, s[0].Close)
	assert.Equal(t, 1234.5, s[0].Volume)
	assert.Equal(t, 111.0, s[1].Close)
	assert.NoError(t, s.Validate())
}

func TestCandles_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	})

	_, err := c.Candles(context.Background(), "NOPE", "1d", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
}

func TestCandles_BadRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1700000000000,"x","1","1","1","1"]]`))
	})

	_, err := c.Candles(context.Background(), "BTCUSDT", "1d", 10)
	assert.Error(t, err)
}

func TestPriceAndStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64123.45"}`))
		case "/api/v3/ticker/24hr":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"64123.45","priceChangePercent":"-1.25",
				"volume":"1000","quoteVolume":"64000000","highPrice":"65000","lowPrice":"63000"}`))
		default:
			http.NotFound(w, r)
		}
	})

	p, err := c.Price(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 64123.45, p)

	st, err := c.Stats24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, -1.25, st.ChangePct)
	assert.Equal(t, 65000.0, st.High)
	assert.Equal(t, 63000.0, st.Low)
	assert.Equal(t, 64000000.0, st.QuoteVolume)
}

func TestTopByVolume(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"1","priceChangePercent":"0","volume":"1","quoteVolume":"300","highPrice":"1","lowPrice":"1"},
			{"symbol":"ETHBTC","lastPrice":"1","priceChangePercent":"0","volume":"1","quoteVolume":"9999","highPrice":"1","lowPrice":"1"},
			{"symbol":"ETHUSDT","lastPrice":"1","priceChangePercent":"0","volume":"1","quoteVolume":"500","highPrice":"1","lowPrice":"1"},
			{"symbol":"DEADUSDT","lastPrice":"0","priceChangePercent":"0","volume":"1","quoteVolume":"800","highPrice":"1","lowPrice":"1"},
			{"symbol":"SOLUSDT","lastPrice":"1","priceChangePercent":"0","volume":"1","quoteVolume":"100","highPrice":"1","lowPrice":"1"}
		]`))
	})

	top, err := c.TopByVolume(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "ETHUSDT", top[0].Symbol)
	assert.Equal(t, "BTCUSDT", top[1].Symbol)
}

func TestResolve(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		_, _ = w.Write([]byte(exchangeInfoBody))
	})
	ctx := context.Background()

	cases := map[string]string{
		"btc":      "BTCUSDT",
		" BTC ":    "BTCUSDT",
		"bitcoin":  "BTCUSDT",
		"эфир":     "ETHUSDT",
		"eth":      "ETHUSDT",
		"ethf":     "ETHFIUSDT",
		"dog":      "DOGEUSDT",
		"oge":      "DOGEUSDT",
		"dogeusdt": "DOGEUSDT",
	}
	for in, want := range cases {
		got, err := c.Resolve(ctx, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := c.Resolve(ctx, "luna")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	_, err = c.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_ExchangeDown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	got, err := c.Resolve(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", got)

	got, err = c.Resolve(context.Background(), "solusdt")
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", got)
}
