package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crypto_bot/internal/models"
	sentiment "crypto_bot/internal/modules/sentiment/service"
	"crypto_bot/internal/ta"
)

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		43210.5:   "$43,210.50",
		1234567.0: "$1,234,567.00",
		999.999:   "$1,000.00",
		1:         "$1.00",
		0.5:       "$0.500000",
		0.001234:  "$0.00123400",
		0:         "$0.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatPrice(in), "%v", in)
	}
}

func TestFormatPctAndVolume(t *testing.T) {
	assert.Equal(t, "+3.21%", formatPct(3.2149))
	assert.Equal(t, "-1.50%", formatPct(-1.5))
	assert.Equal(t, "0.00%", formatPct(0))

	assert.Equal(t, "1.50B", formatVolume(1.5e9))
	assert.Equal(t, "12.35M", formatVolume(12_345_678))
	assert.Equal(t, "2.5K", formatVolume(2500))
	assert.Equal(t, "42", formatVolume(42))
}

func TestFormatAnalysis(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	res := ta.Analyze("BTCUSDT", "4h", seriesOf(closes))
	text := formatAnalysis(res)

	assert.Contains(t, text, "*BTCUSDT* · 4h")
	assert.Contains(t, text, "$199.00")
	assert.Contains(t, text, "RSI(14)")
	assert.Contains(t, text, "*Оценка:*")
	assert.Contains(t, text, res.Score.Recommendation)
}

func TestFormatAnalysis_NeutralStatus(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10 + float64(i%4)
	}
	res := ta.Analyze("SOLUSDT", "1h", seriesOf(closes))
	text := formatAnalysis(res)

	assert.Contains(t, text, "Мало истории")
	assert.Contains(t, text, "5.0/10")
}

func TestFormatPlan_Hold(t *testing.T) {
	text := formatPlan(models.EntryExitPlan{Action: models.SideHold})
	assert.Contains(t, text, "ждём подтверждения")
	assert.NotContains(t, text, "Стоп")
}

func TestFormatFib(t *testing.T) {
	res := models.AnalysisResult{
		Symbol:    "ETHUSDT",
		Timeframe: "1d",
		Price:     100,
		Indicators: models.IndicatorSet{Fibonacci: []models.FibLevel{
			{Name: "0%", Ratio: 0, Price: 120},
			{Name: "61.8%", Ratio: 0.618, Price: 99},
			{Name: "100%", Ratio: 1, Price: 80},
		}},
	}
	lines := strings.Split(formatFib(res), "\n")

	assert.Contains(t, lines[3], "сопротивление")
	assert.Contains(t, lines[4], "поддержка")
	assert.Contains(t, lines[4], "рядом")
	assert.NotContains(t, lines[5], "рядом")
}

func TestFormatSignals(t *testing.T) {
	sum := ta.SignalSummary{
		Symbol:   "BTCUSDT",
		Analyzed: 2,
		Missing:  []string{"1d"},
		Signals: []models.Signal{
			{Type: models.SideBuy, Indicator: models.IndicatorRSI, Reason: "RSI oversold", Strength: 7, Confidence: models.ConfidenceHigh, Timeframe: "1h"},
		},
		Bullish: 7,
	}
	text := formatSignals(sum)

	assert.Contains(t, text, "🟢 *BUY* RSI")
	assert.Contains(t, text, "Без данных: 1d")
	assert.Contains(t, text, "Перевес у покупателей")
}

func TestFormatBreakouts(t *testing.T) {
	assert.Contains(t, formatBreakouts(nil), "нет монет")

	text := formatBreakouts([]ta.BreakoutResult{{
		Symbol: "SOLUSDT", Score: 7.5, Probability: 65, TargetPct: 9.2, RiskReward: 2.3,
		Reasons: []string{"Всплеск объёма x2.1"},
	}})
	assert.Contains(t, text, "1. *SOLUSDT* · `7.5/10`")
	assert.Contains(t, text, "+9.20%")
	assert.Contains(t, text, "Всплеск объёма")
}

func TestFormatFearGreed(t *testing.T) {
	history := make([]models.FearGreed, 7)
	for i := range history {
		history[i] = models.FearGreed{Value: 30 + i, Time: time.Now()}
	}
	history[0] = models.FearGreed{Value: 80, Classification: "Extreme Greed"}
	idx := sentiment.Index{Current: history[0], History: history}

	text := formatFearGreed(idx)
	assert.Contains(t, text, "`80/100`")
	assert.Contains(t, text, "Extreme Greed")
	assert.Contains(t, text, "`+44`")

	idx.History = idx.History[:3]
	assert.NotContains(t, formatFearGreed(idx), "За неделю")
}

func TestFormatAlarms(t *testing.T) {
	assert.Contains(t, formatAlarmList(nil, 10), "Алертов нет")

	views := []alarmView{
		{Alarm: models.Alarm{Symbol: "BTCUSDT", Target: 55000, Direction: models.AlarmAbove}, Price: 50000, Known: true},
		{Alarm: models.Alarm{Symbol: "ETHUSDT", Target: 2000, Direction: models.AlarmBelow}},
	}
	text := formatAlarmList(views, 10)
	assert.Contains(t, text, "(2/10)")
	assert.Contains(t, text, "*BTCUSDT* выше `$55,000.00` · сейчас `$50,000.00`, осталось 10.0%")
	assert.Contains(t, text, "*ETHUSDT* ниже `$2,000.00`")

	fired := formatAlarmTriggered(views[1].Alarm, 1990)
	assert.Contains(t, fired, "опустился до `$2,000.00`")
	assert.Contains(t, fired, "$1,990.00")
}

func TestEsc(t *testing.T) {
	assert.Equal(t, `a\_b\*c`, esc("a_b*c"))
}
