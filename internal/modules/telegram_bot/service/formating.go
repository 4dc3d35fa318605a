package service

import (
	"fmt"
	"math"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crypto_bot/internal/models"
	sentiment "crypto_bot/internal/modules/sentiment/service"
	"crypto_bot/internal/ta"
)

func esc(s string) string { return tgbot.EscapeText(tgbot.ModeMarkdown, s) }

// formatPrice: мелкие монеты с 8 или 6 знаками, остальные с 2 и разделителями тысяч.
func formatPrice(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case v > 0 && v < 0.01:
		return "$" + d.StringFixed(8)
	case v > 0 && v < 1:
		return "$" + d.StringFixed(6)
	}
	return "$" + groupThousands(d.StringFixed(2))
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

func formatPct(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if v > 0 {
		s = "+" + s
	}
	return s + "%"
}

func formatVolume(v float64) string {
	switch {
	case v >= 1e9:
		return decimal.NewFromFloat(v/1e9).StringFixed(2) + "B"
	case v >= 1e6:
		return decimal.NewFromFloat(v/1e6).StringFixed(2) + "M"
	case v >= 1e3:
		return decimal.NewFromFloat(v/1e3).StringFixed(1) + "K"
	}
	return decimal.NewFromFloat(v).StringFixed(0)
}

func f1(v float64) string { return decimal.NewFromFloat(v).StringFixed(1) }

func sideIcon(s models.Side) string {
	switch s {
	case models.SideBuy:
		return "🟢"
	case models.SideSell:
		return "🔴"
	}
	return "⚪️"
}

func directionRU(d models.Direction) string {
	switch d {
	case models.DirectionBullish:
		return "восходящий 📈"
	case models.DirectionBearish:
		return "нисходящий 📉"
	}
	return "боковой ➡️"
}

func statusNote(s models.Status) string {
	switch s {
	case models.StatusInsufficientData:
		return fmt.Sprintf("⚠️ Мало истории: нужно хотя бы %d свечей, оценка нейтральная.", ta.MinCandles)
	case models.StatusInvalidInput:
		return "⚠️ Биржа вернула некорректные свечи, оценка нейтральная."
	case models.StatusFlat:
		return "😴 Цена стоит на месте, сигналов нет."
	}
	return ""
}

func formatSignal(s models.Signal) string {
	line := fmt.Sprintf("%s *%s* %s · сила %d/10 (%s)", sideIcon(s.Type), s.Type, esc(s.Indicator), s.Strength, s.Confidence)
	if s.Reason != "" {
		line += "\n    " + esc(s.Reason)
	}
	return line
}

func formatAnalysis(res models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s* · %s\n", esc(res.Symbol), res.Timeframe)
	fmt.Fprintf(&b, "💰 Цена: `%s`\n", formatPrice(res.Price))
	if note := statusNote(res.Status); note != "" {
		fmt.Fprintf(&b, "\n%s\n", note)
	}

	set := res.Indicators
	b.WriteString("\n*Индикаторы*\n")
	if v, ok := models.LastValue(set.RSI); ok {
		fmt.Fprintf(&b, "RSI(14): `%s`\n", f1(v))
	}
	if v, ok := models.LastValue(set.MACD.Histogram); ok {
		state := "медвежий"
		if v > 0 {
			state = "бычий"
		}
		fmt.Fprintf(&b, "MACD: %s\n", state)
	}
	lo, okLo := models.LastValue(set.Bollinger.Lower)
	up, okUp := models.LastValue(set.Bollinger.Upper)
	if okLo && okUp {
		fmt.Fprintf(&b, "Bollinger: `%s` … `%s`\n", formatPrice(lo), formatPrice(up))
	}
	fmt.Fprintf(&b, "Тренд: %s (%d/10), импульс %s\n", directionRU(set.Trend.Direction), set.Trend.Score, formatPct(set.Trend.Momentum))
	fmt.Fprintf(&b, "Риск: %d/10, волатильность %s%%, просадка %s%%\n", set.Risk.Level, f1(set.Risk.Volatility), f1(set.Risk.MaxDrawdown))

	if len(res.Signals) > 0 {
		b.WriteString("\n*Сигналы*\n")
		for _, s := range res.Signals {
			b.WriteString(formatSignal(s))
			b.WriteByte('\n')
		}
	}

	b.WriteString(formatPlan(res.Plan))
	fmt.Fprintf(&b, "\n🎯 *Оценка:* `%s/10` · *%s*", f1(res.Score.Value), res.Score.Recommendation)
	return b.String()
}

func formatPlan(p models.EntryExitPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n*План*\n%s %s", sideIcon(p.Action), p.Action)
	if p.Action == models.SideHold {
		b.WriteString(" · ждём подтверждения\n")
		return b.String()
	}
	fmt.Fprintf(&b, " · перевес %d\n", p.Confidence)
	for _, e := range p.Entries {
		fmt.Fprintf(&b, "Вход (%s): `%s`\n", esc(e.Label), formatPrice(e.Price))
	}
	if p.StopLoss > 0 {
		fmt.Fprintf(&b, "Стоп: `%s`\n", formatPrice(p.StopLoss))
	}
	if p.TakeProfit > 0 {
		fmt.Fprintf(&b, "Тейк: `%s`\n", formatPrice(p.TakeProfit))
	}
	if p.RiskReward > 0 {
		fmt.Fprintf(&b, "R/R: `%s`\n", decimal.NewFromFloat(p.RiskReward).StringFixed(2))
	}
	return b.String()
}

func formatMulti(m ta.MultiResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧭 *%s* · все таймфреймы\n\n", esc(m.Symbol))
	for _, fr := range m.Frames {
		r := fr.Result
		fmt.Fprintf(&b, "*%s*: `%s/10` %s · тренд %s\n", fr.Frame.Interval, f1(r.Score.Value), r.Score.Recommendation, directionRU(r.Indicators.Trend.Direction))
	}
	if len(m.Frames) == 0 {
		b.WriteString("Нет данных ни по одному таймфрейму.\n")
	}
	if len(m.Missing) > 0 {
		fmt.Fprintf(&b, "\nБез данных: %s\n", strings.Join(m.Missing, ", "))
	}
	fmt.Fprintf(&b, "\n📐 Средняя оценка: `%s/10`", f1(m.Average()))
	if best, ok := m.Strongest(); ok {
		fmt.Fprintf(&b, "\n💪 Сильнейший таймфрейм: *%s* (%s)", best.Frame.Interval, best.Result.Score.Recommendation)
	}
	return b.String()
}

func formatFib(res models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌀 *%s* · уровни Фибоначчи (%s)\n", esc(res.Symbol), res.Timeframe)
	fmt.Fprintf(&b, "💰 Цена: `%s`\n\n", formatPrice(res.Price))

	zones := ta.FibZones(res.Indicators.Fibonacci, res.Price)
	if len(zones) == 0 {
		b.WriteString("Уровни не рассчитаны: мало истории.")
		return b.String()
	}
	for _, z := range zones {
		role := "сопротивление"
		if z.Support {
			role = "поддержка"
		}
		near := ""
		if z.Near {
			near = " 👈 рядом"
		}
		fmt.Fprintf(&b, "%s: `%s` · %s, %s%%%s\n", esc(z.Level.Name), formatPrice(z.Level.Price), role, f1(z.DistancePct), near)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSignals(sum ta.SignalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📡 *%s* · сигналы по %d таймфреймам\n\n", esc(sum.Symbol), sum.Analyzed)
	if len(sum.Signals) == 0 {
		b.WriteString("Активных сигналов нет.\n")
	}
	for _, s := range sum.Signals {
		b.WriteString(formatSignal(s))
		if s.Timeframe != "" {
			fmt.Fprintf(&b, " · %s", s.Timeframe)
		}
		b.WriteByte('\n')
	}
	if len(sum.Missing) > 0 {
		fmt.Fprintf(&b, "\nБез данных: %s\n", strings.Join(sum.Missing, ", "))
	}

	fmt.Fprintf(&b, "\n🐂 Бычьи: `%d` · 🐻 Медвежьи: `%d`\n", sum.Bullish, sum.Bearish)
	switch {
	case sum.Bullish > sum.Bearish:
		b.WriteString("Перевес у покупателей")
	case sum.Bearish > sum.Bullish:
		b.WriteString("Перевес у продавцов")
	default:
		b.WriteString("Силы равны")
	}
	return b.String()
}

func formatBreakouts(list []ta.BreakoutResult) string {
	if len(list) == 0 {
		return "🔍 Сейчас нет монет с признаками пробоя."
	}
	var b strings.Builder
	b.WriteString("🚀 *Кандидаты на пробой*\n")
	for i, r := range list {
		fmt.Fprintf(&b, "\n%d. *%s* · `%s/10`\n", i+1, esc(r.Symbol), f1(r.Score))
		fmt.Fprintf(&b, "Цель: %s · вероятность %d%% · R/R %s\n", formatPct(r.TargetPct), r.Probability, f1(r.RiskReward))
		for _, reason := range r.Reasons {
			fmt.Fprintf(&b, "  • %s\n", esc(reason))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTicker(t models.Ticker24h) string {
	icon := "📈"
	if t.ChangePct < 0 {
		icon = "📉"
	}
	return fmt.Sprintf(
		"💰 *%s*\n\n"+
			"Цена: `%s`\n"+
			"%s 24ч: `%s`\n"+
			"Макс: `%s`\n"+
			"Мин: `%s`\n"+
			"Объём: `%s`",
		esc(t.Symbol),
		formatPrice(t.LastPrice),
		icon, formatPct(t.ChangePct),
		formatPrice(t.High),
		formatPrice(t.Low),
		formatVolume(t.QuoteVolume),
	)
}

func formatTop(list []models.Ticker24h) string {
	var b strings.Builder
	b.WriteString("🏆 *Топ по объёму за 24ч*\n")
	for i, t := range list {
		fmt.Fprintf(&b, "\n%d. *%s* `%s` %s · %s", i+1, esc(strings.TrimSuffix(t.Symbol, "USDT")), formatPrice(t.LastPrice), formatPct(t.ChangePct), formatVolume(t.QuoteVolume))
	}
	return b.String()
}

func formatFearGreed(idx sentiment.Index) string {
	emoji, comment, hint := sentiment.Mood(idx.Current.Value)
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Индекс страха и жадности:* `%d/100`\n", emoji, idx.Current.Value)
	fmt.Fprintf(&b, "%s\n\n%s\n💡 %s", esc(idx.Current.Classification), comment, hint)
	if diff, ok := idx.WeekChange(); ok {
		fmt.Fprintf(&b, "\n\nЗа неделю: `%+d`", diff)
	}
	return b.String()
}

// alarmView: алерт с текущей ценой, если она известна.
type alarmView struct {
	Alarm models.Alarm
	Price float64
	Known bool
}

func directionWord(d models.AlarmDirection) string {
	if d == models.AlarmAbove {
		return "выше"
	}
	return "ниже"
}

func formatAlarmList(views []alarmView, max int) string {
	if len(views) == 0 {
		return "🔕 Алертов нет. Поставить: `/alarm BTC 50000`"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 *Твои алерты* (%d/%d)\n", len(views), max)
	for _, v := range views {
		a := v.Alarm
		fmt.Fprintf(&b, "\n*%s* %s `%s`", esc(a.Symbol), directionWord(a.Direction), formatPrice(a.Target))
		if v.Known && v.Price > 0 {
			dist := math.Abs(a.Target-v.Price) / v.Price * 100
			fmt.Fprintf(&b, " · сейчас `%s`, осталось %s%%", formatPrice(v.Price), f1(dist))
		}
	}
	return b.String()
}

func formatAlarmSet(a models.Alarm, current float64) string {
	return fmt.Sprintf("✅ Алерт: *%s* %s `%s` (сейчас `%s`)",
		esc(a.Symbol), directionWord(a.Direction), formatPrice(a.Target), formatPrice(current))
}

func formatAlarmTriggered(a models.Alarm, price float64) string {
	icon, verb := "🚀", "поднялся до"
	if a.Direction == models.AlarmBelow {
		icon, verb = "🔻", "опустился до"
	}
	return fmt.Sprintf("%s *%s* %s `%s`\nЦена сейчас: `%s`",
		icon, esc(a.Symbol), verb, formatPrice(a.Target), formatPrice(price))
}

func formatPrediction(symbol string, days int, text string) string {
	return fmt.Sprintf("🔮 *%s* · прогноз на %d дн.\n\n%s\n\n_Не является финансовой рекомендацией._", esc(symbol), days, esc(text))
}

const helpText = "🤖 *Крипто-аналитик*\n\n" +
	"/price BTC · цена и статистика за 24ч\n" +
	"/top10 · топ монет по объёму\n" +
	"/analyze BTC [1h|4h|1d|1w|multi|fib|ai] · технический анализ\n" +
	"/signals BTC · сводка сигналов 1h/4h/1d\n" +
	"/breakout · кандидаты на пробой\n" +
	"/fear · индекс страха и жадности\n" +
	"/predict BTC [дни] · прогноз модели\n" +
	"/alarm BTC 50000 · алерт на цену\n" +
	"/alarms · мои алерты\n" +
	"/alarmstop BTC · снять алерты по монете\n\n" +
	"В группах отвечаю на команды, упоминания и ответы на мои сообщения."
