package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto_bot/internal/helper"
	commentary "crypto_bot/internal/modules/commentary/service"
	"crypto_bot/internal/ta"
	"crypto_bot/pkg/logger"
)

const (
	topSize     = 10
	modeMulti   = "multi"
	modeFib     = "fib"
	modeAI      = "ai"
	defaultTF   = "1d"
	analyzeHint = "Укажи монету: `/analyze BTC [1h|4h|1d|1w|multi|fib|ai]`"
)

func (t *Telegram) cmdPrice(ctx context.Context, msg *tgbot.Message, args []string) error {
	symbol, err := t.resolveArg(ctx, args, "Укажи монету: `/price BTC`")
	if err != nil {
		return err
	}
	stats, err := t.market.Stats24h(ctx, symbol)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatTicker(stats))
	return nil
}

func (t *Telegram) cmdTop(ctx context.Context, msg *tgbot.Message, _ []string) error {
	list, err := t.market.TopByVolume(ctx, topSize)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatTop(list))
	return nil
}

// cmdAnalyze: без режима предлагает кнопки таймфреймов, неизвестный режим считается дневным.
func (t *Telegram) cmdAnalyze(ctx context.Context, msg *tgbot.Message, args []string) error {
	symbol, err := t.resolveArg(ctx, args, analyzeHint)
	if err != nil {
		return err
	}
	chatID := msg.Chat.ID

	if len(args) < 2 {
		return t.sendTimeframeKeyboard(ctx, chatID, symbol)
	}

	switch mode := strings.ToLower(args[1]); mode {
	case modeMulti:
		multi, err := ta.MultiTimeframe(ctx, t.market, symbol, ta.DefaultFrames)
		if err != nil {
			return err
		}
		t.SendMarkdown(ctx, chatID, formatMulti(multi))
		return nil
	case modeFib:
		series, err := t.market.Candles(ctx, symbol, defaultTF, ta.LimitFor(defaultTF))
		if err != nil {
			return err
		}
		t.SendMarkdown(ctx, chatID, formatFib(ta.Analyze(symbol, defaultTF, series)))
		return nil
	case modeAI:
		return t.sendAICommentary(ctx, chatID, symbol)
	default:
		tf := helper.NormTF(mode)
		if tf == "" {
			tf = defaultTF
		}
		return t.sendAnalysis(ctx, chatID, symbol, tf)
	}
}

func (t *Telegram) sendTimeframeKeyboard(ctx context.Context, chatID int64, symbol string) error {
	row := make([]tgbot.InlineKeyboardButton, 0, len(helper.Timeframes))
	for _, tf := range helper.Timeframes {
		row = append(row, tgbot.NewInlineKeyboardButtonData(tf, "tf:"+symbol+":"+tf))
	}
	m := tgbot.NewMessage(chatID, fmt.Sprintf("⏱ Выбери таймфрейм для *%s*:", esc(symbol)))
	m.ParseMode = tgbot.ModeMarkdown
	m.ReplyMarkup = tgbot.NewInlineKeyboardMarkup(row)
	_, err := t.SendMessage(ctx, m)
	return err
}

func (t *Telegram) sendAnalysis(ctx context.Context, chatID int64, symbol, tf string) error {
	series, err := t.market.Candles(ctx, symbol, tf, ta.LimitFor(tf))
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, chatID, formatAnalysis(ta.Analyze(symbol, tf, series)))
	return nil
}

// sendAICommentary: дневной анализ и комментарий модели к нему.
// Без ключа или при сбое модели пользователь всё равно получает анализ.
func (t *Telegram) sendAICommentary(ctx context.Context, chatID int64, symbol string) error {
	series, err := t.market.Candles(ctx, symbol, defaultTF, ta.LimitFor(defaultTF))
	if err != nil {
		return err
	}
	res := ta.Analyze(symbol, defaultTF, series)
	text := formatAnalysis(res)

	if !t.ai.Enabled() {
		t.SendMarkdown(ctx, chatID, text+"\n\n"+userMessage(commentary.ErrDisabled))
		return nil
	}
	comment, err := t.ai.Comment(ctx, res)
	if err != nil {
		logger.Warn("ai comment %s: %v", symbol, err)
		t.SendMarkdown(ctx, chatID, text+"\n\n🤖 Модель сейчас недоступна.")
		return nil
	}
	t.SendMarkdown(ctx, chatID, text+"\n\n🤖 *Мнение модели*\n"+esc(comment))
	return nil
}

func (t *Telegram) cmdSignals(ctx context.Context, msg *tgbot.Message, args []string) error {
	symbol, err := t.resolveArg(ctx, args, "Укажи монету: `/signals BTC`")
	if err != nil {
		return err
	}
	sum, err := ta.CollectSignals(ctx, t.market, symbol, ta.SignalFrames)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatSignals(sum))
	return nil
}

func (t *Telegram) cmdBreakout(ctx context.Context, msg *tgbot.Message, _ []string) error {
	symbols := make([]string, 0, len(ta.BreakoutCandidates))
	for _, coin := range ta.BreakoutCandidates {
		symbols = append(symbols, coin+"USDT")
	}
	list, err := ta.ScanBreakouts(ctx, t.market, symbols)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatBreakouts(list))
	return nil
}

func (t *Telegram) cmdFear(ctx context.Context, msg *tgbot.Message, _ []string) error {
	idx, err := t.fng.FearGreed(ctx)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatFearGreed(idx))
	return nil
}

func (t *Telegram) cmdPredict(ctx context.Context, msg *tgbot.Message, args []string) error {
	if !t.ai.Enabled() {
		return commentary.ErrDisabled
	}
	symbol, err := t.resolveArg(ctx, args, "Укажи монету: `/predict BTC [дни]`")
	if err != nil {
		return err
	}

	days := commentary.DefaultPredictDays
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError(fmt.Sprintf("Дни указываются числом от 1 до %d", commentary.MaxPredictDays))
		}
		days = commentary.ClampDays(n)
	}

	series, err := t.market.Candles(ctx, symbol, defaultTF, commentary.PredictCandles)
	if err != nil {
		return err
	}
	snap, err := commentary.SnapshotFrom(symbol, series)
	if err != nil {
		return usageError("Слишком мало истории для прогноза по " + esc(symbol))
	}
	text, err := t.ai.Predict(ctx, snap, days)
	if err != nil {
		return fmt.Errorf("predict %s: %w", symbol, err)
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatPrediction(symbol, days, text))
	return nil
}
