package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_bot/internal/models"
	"crypto_bot/internal/modules/alarms/service/store"
	"crypto_bot/internal/modules/config"
	health "crypto_bot/internal/modules/health/service"
)

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  map[string]int
}

func newFakePrices(p map[string]float64) *fakePrices {
	return &fakePrices{prices: p, calls: map[string]int{}}
}

func (f *fakePrices) set(symbol string, p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = p
}

func (f *fakePrices) Price(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	p, ok := f.prices[symbol]
	if !ok {
		return 0, errors.New("no price")
	}
	return p, nil
}

type recorder struct {
	mu    sync.Mutex
	fired []models.Alarm
	at    []float64
}

func (r *recorder) AlarmTriggered(_ context.Context, a models.Alarm, price float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, a)
	r.at = append(r.at, price)
	return nil
}

func testConfig(max int) *config.Config {
	cfg := &config.Config{}
	cfg.Alarms.MaxPerUser = max
	cfg.Alarms.Schedule = "*/1 * * * * *"
	return cfg
}

func TestParseTarget(t *testing.T) {
	for raw, want := range map[string]float64{
		"64000":      64000,
		"64,000.50":  64000.5,
		"$0.35":      0.35,
		" 0.0000123": 0.0000123,
	} {
		got, err := ParseTarget(raw)
		require.NoError(t, err, raw)
		assert.InDelta(t, want, got, 1e-12, raw)
	}

	for _, raw := range []string{"", "abc", "0", "-5", "1e"} {
		_, err := ParseTarget(raw)
		assert.ErrorIs(t, err, ErrBadTarget, raw)
	}
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"BTCUSDT": 60000})
	svc := NewService(testConfig(2), store.NewMemory(), prices)

	up, current, err := svc.Add(ctx, 1, 100, "BTCUSDT", 65000)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, current)
	assert.Equal(t, models.AlarmAbove, up.Direction)
	assert.NotEmpty(t, up.ID)
	assert.Equal(t, int64(100), up.ChatID)

	down, _, err := svc.Add(ctx, 1, 100, "BTCUSDT", 55000)
	require.NoError(t, err)
	assert.Equal(t, models.AlarmBelow, down.Direction)
	assert.NotEqual(t, up.ID, down.ID)

	_, _, err = svc.Add(ctx, 1, 100, "BTCUSDT", 70000)
	assert.ErrorIs(t, err, ErrLimit)

	// лимит считается на пользователя
	_, _, err = svc.Add(ctx, 2, 200, "BTCUSDT", 70000)
	assert.NoError(t, err)

	_, _, err = svc.Add(ctx, 3, 300, "NOPEUSDT", 1)
	assert.Error(t, err)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := svc.Stop(ctx, 1, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChecker_Check(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"BTCUSDT": 60000, "ETHUSDT": 3000})
	st := store.NewMemory()
	svc := NewService(testConfig(10), st, prices)
	rec := &recorder{}
	state := health.NewState()
	ch := NewChecker(testConfig(10), st, prices, rec, state)

	_, _, err := svc.Add(ctx, 1, 10, "BTCUSDT", 62000) // above
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, 1, 10, "BTCUSDT", 58000) // below
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, 2, 20, "ETHUSDT", 3100) // above
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, 3, 30, "SOLUSDT", 1)
	require.Error(t, err, "no price for SOL yet")

	fired, err := ch.Check(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Equal(t, 3, state.AlarmsActive())

	// цена прошла выше обеих целей BTC: срабатывает только алерт "выше"
	prices.set("BTCUSDT", 62500)
	before := prices.calls["BTCUSDT"]
	fired, err = ch.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	assert.Equal(t, before+1, prices.calls["BTCUSDT"], "one price lookup per symbol")
	require.Len(t, rec.fired, 1)
	assert.Equal(t, 62000.0, rec.fired[0].Target)
	assert.Equal(t, 62500.0, rec.at[0])
	assert.Equal(t, 2, state.AlarmsActive())
	assert.False(t, state.LastCheck().IsZero())

	// повторная проверка не шлёт уведомление повторно
	fired, err = ch.Check(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)

	prices.set("BTCUSDT", 57000)
	prices.set("ETHUSDT", 3100)
	fired, err = ch.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	left, err := st.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestChecker_Schedule(t *testing.T) {
	prices := newFakePrices(map[string]float64{"BTCUSDT": 100})
	st := store.NewMemory()
	require.NoError(t, st.Add(context.Background(), models.Alarm{
		ID: "x", UserID: 1, ChatID: 1, Symbol: "BTCUSDT", Target: 90, Direction: models.AlarmAbove, CreatedAt: time.Now(),
	}))
	rec := &recorder{}
	ch := NewChecker(testConfig(10), st, prices, rec, nil)

	require.NoError(t, ch.Start())
	defer ch.Stop()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.fired) == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestChecker_BadSchedule(t *testing.T) {
	cfg := testConfig(10)
	cfg.Alarms.Schedule = "not a cron"
	ch := NewChecker(cfg, store.NewMemory(), newFakePrices(nil), &recorder{}, nil)
	assert.Error(t, ch.Start())
}
