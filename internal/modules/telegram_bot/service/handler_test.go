package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_bot/internal/models"
	alarms "crypto_bot/internal/modules/alarms/service"
	binance "crypto_bot/internal/modules/binance/service"
	commentary "crypto_bot/internal/modules/commentary/service"
	"crypto_bot/internal/modules/config"
	sentiment "crypto_bot/internal/modules/sentiment/service"
)

type apiCall struct {
	Method string
	Params map[string]string
}

// fakeAPI: минимальный Bot API: getMe, sendMessage и «ok» на всё остальное.
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Params: params})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		fmt.Fprintf(w, `{"ok":true,"result":{"id":%d,"is_bot":true,"first_name":"Bot","username":%q}}`, self.ID, self.UserName)
	case "sendMessage":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}}`, params["chat_id"])
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) sent() []string {
	var out []string
	for _, c := range f.byMethod("sendMessage") {
		out = append(out, c.Params["text"])
	}
	return out
}

type fakeMarket struct {
	series map[string]models.Series // key: symbol + "/" + interval
}

func (m *fakeMarket) Resolve(_ context.Context, input string) (string, error) {
	switch strings.ToLower(input) {
	case "btc", "биткоин":
		return "BTCUSDT", nil
	case "eth":
		return "ETHUSDT", nil
	}
	return "", errors.Wrap(binance.ErrUnknownSymbol, input)
}

func (m *fakeMarket) Candles(_ context.Context, symbol, interval string, _ int) (models.Series, error) {
	s, ok := m.series[symbol+"/"+interval]
	if !ok {
		return nil, errors.Errorf("no candles for %s %s", symbol, interval)
	}
	return s, nil
}

func (m *fakeMarket) Stats24h(_ context.Context, symbol string) (models.Ticker24h, error) {
	return models.Ticker24h{Symbol: symbol, LastPrice: 43210.5, ChangePct: 2.5, High: 44000, Low: 42000, QuoteVolume: 1.2e9}, nil
}

func (m *fakeMarket) TopByVolume(_ context.Context, n int) ([]models.Ticker24h, error) {
	return []models.Ticker24h{
		{Symbol: "BTCUSDT", LastPrice: 43000, QuoteVolume: 2e9},
		{Symbol: "ETHUSDT", LastPrice: 2300, QuoteVolume: 1e9},
	}[:min(n, 2)], nil
}

type fakeSentiment struct{}

func (fakeSentiment) FearGreed(context.Context) (sentiment.Index, error) {
	return sentiment.Index{Current: models.FearGreed{Value: 20, Classification: "Extreme Fear"}}, nil
}

type fakeAI struct {
	enabled bool
	days    int
}

func (a *fakeAI) Enabled() bool { return a.enabled }

func (a *fakeAI) Predict(_ context.Context, snap commentary.Snapshot, days int) (string, error) {
	a.days = days
	return "Умеренный рост по " + snap.Symbol, nil
}

func (a *fakeAI) Comment(context.Context, models.AnalysisResult) (string, error) {
	return "Рынок перегрет", nil
}

type fakeAlarms struct {
	added []models.Alarm
	max   int
}

func (a *fakeAlarms) Add(_ context.Context, userID, chatID int64, symbol string, target float64) (models.Alarm, float64, error) {
	if len(a.added) >= a.max {
		return models.Alarm{}, 0, alarms.ErrLimit
	}
	al := models.Alarm{ID: "id", UserID: userID, ChatID: chatID, Symbol: symbol, Target: target, Direction: models.DirectionFor(40000, target)}
	a.added = append(a.added, al)
	return al, 40000, nil
}

func (a *fakeAlarms) List(_ context.Context, userID int64) ([]models.Alarm, error) {
	var out []models.Alarm
	for _, al := range a.added {
		if al.UserID == userID {
			out = append(out, al)
		}
	}
	return out, nil
}

func (a *fakeAlarms) Stop(_ context.Context, userID int64, symbol string) (int, error) {
	n := 0
	kept := a.added[:0]
	for _, al := range a.added {
		if al.UserID == userID && al.Symbol == symbol {
			n++
			continue
		}
		kept = append(kept, al)
	}
	a.added = kept
	return n, nil
}

func (a *fakeAlarms) Price(context.Context, string) (float64, error) { return 40000, nil }
func (a *fakeAlarms) MaxPerUser() int                                 { return a.max }

type harness struct {
	tg     *Telegram
	api    *fakeAPI
	ai     *fakeAI
	alarms *fakeAlarms
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tgbot.NewBotAPIWithAPIEndpoint("TOKEN", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	closes := make([]float64, 168)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := seriesOf(closes)
	market := &fakeMarket{series: map[string]models.Series{
		"BTCUSDT/1h": series,
		"BTCUSDT/4h": series,
		"BTCUSDT/1d": series,
		"ETHUSDT/1h": series,
	}}

	cfg := &config.Config{}
	h := &harness{api: api, ai: &fakeAI{}, alarms: &fakeAlarms{max: 2}}
	h.tg = newTelegram(bot, cfg, market, fakeSentiment{}, h.ai, h.alarms, nil)
	return h
}

func (h *harness) send(msg *tgbot.Message) {
	h.tg.handleUpdate(context.Background(), tgbot.Update{Message: msg})
}

func (h *harness) last(t *testing.T) string {
	t.Helper()
	sent := h.api.sent()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func TestHandle_Price(t *testing.T) {
	h := newHarness(t)
	h.send(commandMsg(private, "/price btc"))

	text := h.last(t)
	assert.Contains(t, text, "*BTCUSDT*")
	assert.Contains(t, text, "$43,210.50")
	assert.Contains(t, text, "+2.50%")

	msgs := h.api.byMethod("sendMessage")
	assert.Equal(t, "100", msgs[0].Params["chat_id"])
	assert.Equal(t, tgbot.ModeMarkdown, msgs[0].Params["parse_mode"])
}

func TestHandle_UnknownCoinAndUsage(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/price dogecoin2"))
	assert.Contains(t, h.last(t), "Не нашёл")

	h.send(commandMsg(private, "/price"))
	assert.Contains(t, h.last(t), "/price BTC")

	h.send(commandMsg(private, "/nope"))
	assert.Contains(t, h.last(t), "Не знаю такой команды")
}

func TestHandle_GroupEtiquette(t *testing.T) {
	h := newHarness(t)

	h.send(&tgbot.Message{Chat: group, From: &tgbot.User{ID: 7}, Text: "кто знает, что с биткоином?"})
	h.send(commandMsg(group, "/price@otherbot btc"))
	assert.Empty(t, h.api.sent())

	h.send(commandMsg(group, "/top10@cryptobot"))
	assert.Contains(t, h.last(t), "Топ по объёму")
}

func TestHandle_AnalyzeKeyboardAndCallback(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/analyze btc"))
	msgs := h.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Params["reply_markup"], "tf:BTCUSDT:1h")
	assert.Contains(t, msgs[0].Params["reply_markup"], "tf:BTCUSDT:1w")

	h.tg.handleUpdate(context.Background(), tgbot.Update{CallbackQuery: &tgbot.CallbackQuery{
		ID:      "cb1",
		Data:    "tf:BTCUSDT:4h",
		Message: &tgbot.Message{MessageID: 5, Chat: private},
	}})

	assert.Len(t, h.api.byMethod("answerCallbackQuery"), 1)
	assert.Len(t, h.api.byMethod("editMessageReplyMarkup"), 1)
	assert.Contains(t, h.last(t), "*BTCUSDT* · 4h")
}

func TestHandle_AnalyzeModes(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/analyze btc 1h"))
	assert.Contains(t, h.last(t), "*BTCUSDT* · 1h")

	h.send(commandMsg(private, "/analyze btc sideways"))
	assert.Contains(t, h.last(t), "*BTCUSDT* · 1d")

	h.send(commandMsg(private, "/analyze btc multi"))
	text := h.last(t)
	assert.Contains(t, text, "все таймфреймы")
	assert.Contains(t, text, "Без данных: 1w")

	h.send(commandMsg(private, "/analyze btc fib"))
	assert.Contains(t, h.last(t), "уровни Фибоначчи")

	h.send(commandMsg(private, "/analyze btc ai"))
	assert.Contains(t, h.last(t), "отключены")

	h.ai.enabled = true
	h.send(commandMsg(private, "/analyze btc ai"))
	assert.Contains(t, h.last(t), "Рынок перегрет")
}

func TestHandle_Cooldown(t *testing.T) {
	h := newHarness(t)
	h.tg.cooldown = newCooldown(time.Minute)

	h.send(commandMsg(private, "/analyze btc 1d"))
	h.send(commandMsg(private, "/signals btc"))
	assert.Contains(t, h.last(t), "Подожди")

	h.send(commandMsg(private, "/price btc"))
	assert.Contains(t, h.last(t), "*BTCUSDT*")
}

func TestHandle_Signals(t *testing.T) {
	h := newHarness(t)
	h.send(commandMsg(private, "/signals btc"))

	text := h.last(t)
	assert.Contains(t, text, "сигналы по 3 таймфреймам")
	assert.Contains(t, text, "Бычьи")
}

func TestHandle_FearAndBreakout(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/fear"))
	assert.Contains(t, h.last(t), "`20/100`")

	h.send(commandMsg(private, "/breakout"))
	assert.NotEmpty(t, h.last(t))
}

func TestHandle_Predict(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/predict btc"))
	assert.Contains(t, h.last(t), "отключены")

	h.ai.enabled = true
	h.send(commandMsg(private, "/predict btc 90"))
	assert.Contains(t, h.last(t), "прогноз на 30 дн.")
	assert.Equal(t, commentary.MaxPredictDays, h.ai.days)

	h.send(commandMsg(private, "/predict btc завтра"))
	assert.Contains(t, h.last(t), "числом")
}

func TestHandle_Alarms(t *testing.T) {
	h := newHarness(t)

	h.send(commandMsg(private, "/alarm btc 50,000"))
	assert.Contains(t, h.last(t), "*BTCUSDT* выше `$50,000.00`")
	require.Len(t, h.alarms.added, 1)
	assert.Equal(t, 50000.0, h.alarms.added[0].Target)
	assert.Equal(t, int64(7), h.alarms.added[0].UserID)
	assert.Equal(t, int64(100), h.alarms.added[0].ChatID)

	h.send(commandMsg(private, "/alarm eth abc"))
	assert.Contains(t, h.last(t), "Не понял цену")

	h.send(commandMsg(private, "/alarm eth 1000"))
	h.send(commandMsg(private, "/alarm eth 900"))
	assert.Contains(t, h.last(t), "лимит")

	h.send(commandMsg(private, "/alarms"))
	assert.Contains(t, h.last(t), "(2/2)")

	h.send(commandMsg(private, "/alarmstop eth"))
	assert.Contains(t, h.last(t), "Снято алертов по *ETHUSDT*: 1")

	h.send(commandMsg(private, "/alarmstop eth"))
	assert.Contains(t, h.last(t), "алертов не было")
}

func TestAlarmTriggered(t *testing.T) {
	h := newHarness(t)

	err := h.tg.AlarmTriggered(context.Background(), models.Alarm{ChatID: -555, Symbol: "BTCUSDT", Target: 50000, Direction: models.AlarmAbove}, 50100)
	require.NoError(t, err)

	msgs := h.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Equal(t, "-555", msgs[0].Params["chat_id"])
	assert.Contains(t, msgs[0].Params["text"], "поднялся до `$50,000.00`")
}
