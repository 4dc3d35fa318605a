package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_bot/internal/modules/config"
	health "crypto_bot/internal/modules/health/service"
)

func TestStream_Apply(t *testing.T) {
	s := NewStream(&config.Config{}, nil)
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	n := s.apply([]byte(`[{"e":"24hrMiniTicker","E":1,"s":"BTCUSDT","c":"64000.5"},{"s":"BADUSDT","c":"0"},{"s":"ETHUSDT","c":"x"}]`))
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, s.apply([]byte(`{"not":"an array"}`)))

	p, ok := s.Price("btcusdt")
	require.True(t, ok)
	assert.Equal(t, 64000.5, p)

	_, ok = s.Price("ETHUSDT")
	assert.False(t, ok)

	now = now.Add(PriceTTL + time.Second)
	_, ok = s.Price("BTCUSDT")
	assert.False(t, ok, "stale price must not be served")
}

func TestStream_Run(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"s":"SOLUSDT","c":"150.25"}]`))
		// держим соединение, пока клиент не закроет
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Binance.WSURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	state := health.NewState()
	s := NewStream(cfg, state)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return state.PricesCached() == 1
	}, 3*time.Second, 10*time.Millisecond)
	p, ok := s.Price("SOLUSDT")
	require.True(t, ok)
	assert.Equal(t, 150.25, p)
	assert.True(t, state.WSConnected())
	assert.False(t, state.LastTick().IsZero())

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not stop")
	}
	assert.False(t, state.WSConnected())
}

func TestQuotes_Fallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"3000"}`))
	})
	s := NewStream(&config.Config{}, nil)
	s.apply([]byte(`[{"s":"BTCUSDT","c":"64000"}]`))
	q := NewQuotes(s, c)

	p, err := q.Price(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 64000.0, p)

	p, err = q.Price(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, p)
}
