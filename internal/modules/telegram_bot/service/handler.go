package service

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/opentracing/opentracing-go"

	"crypto_bot/internal/helper"
	"crypto_bot/pkg/logger"
)

type command func(ctx context.Context, msg *tgbot.Message, args []string) error

func (t *Telegram) commands() map[string]command {
	return map[string]command{
		"start":     t.cmdHelp,
		"help":      t.cmdHelp,
		"price":     t.cmdPrice,
		"top10":     t.cmdTop,
		"analyze":   t.cmdAnalyze,
		"signals":   t.cmdSignals,
		"breakout":  t.cmdBreakout,
		"fear":      t.cmdFear,
		"predict":   t.cmdPredict,
		"alarm":     t.cmdAlarm,
		"alarms":    t.cmdAlarms,
		"alarmstop": t.cmdAlarmStop,
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	// 1) Сообщения
	if msg := update.Message; msg != nil {
		if !addressed(msg, t.bot.Self) {
			return
		}
		if msg.IsCommand() {
			t.handleCommand(ctx, msg)
			return
		}
		t.SendMarkdown(ctx, msg.Chat.ID, "Я понимаю команды. Список: /help")
		return
	}

	// 2) Inline-кнопки
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		t.handleCallback(ctx, cb)
	}
}

func (t *Telegram) handleCommand(ctx context.Context, msg *tgbot.Message) {
	name := strings.ToLower(msg.Command())
	cmd, ok := t.commands()[name]
	if !ok {
		t.SendMarkdown(ctx, msg.Chat.ID, "Не знаю такой команды. Список: /help")
		return
	}

	chatID := msg.Chat.ID
	if heavy(name) {
		if ok, wait := t.cooldown.Allow(chatID); !ok {
			t.SendMarkdown(ctx, chatID, fmt.Sprintf("⏳ Подожди %d сек. перед следующим анализом", int(wait.Seconds())+1))
			return
		}
		t.typing(chatID)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	span, ctx := opentracing.StartSpanFromContext(ctx, "telegram."+name)
	defer span.Finish()
	span.SetTag("chat_id", chatID)

	if err := cmd(ctx, msg, helper.SplitArgs(msg.CommandArguments())); err != nil {
		if _, usage := err.(usageError); !usage {
			span.SetTag("error", true)
			logger.Error("command /%s in chat %d: %v", name, chatID, err)
		}
		t.SendMarkdown(ctx, chatID, userMessage(err))
	}
}

// handleCallback обрабатывает кнопки выбора таймфрейма: данные вида "tf:BTCUSDT:4h".
func (t *Telegram) handleCallback(ctx context.Context, cb *tgbot.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	if _, err := t.bot.Request(tgbot.NewCallback(cb.ID, "")); err != nil {
		logger.Warn("callback answer: %v", err)
	}

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 || parts[0] != "tf" {
		return
	}
	symbol, tf := parts[1], helper.NormTF(parts[2])
	if tf == "" {
		return
	}

	if err := t.editReplyMarkupRemove(chatID, cb.Message.MessageID); err != nil {
		logger.Warn("remove keyboard: %v", err)
	}
	if ok, wait := t.cooldown.Allow(chatID); !ok {
		t.SendMarkdown(ctx, chatID, fmt.Sprintf("⏳ Подожди %d сек. перед следующим анализом", int(wait.Seconds())+1))
		return
	}
	t.typing(chatID)

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := t.sendAnalysis(ctx, chatID, symbol, tf); err != nil {
		logger.Error("callback analysis %s %s: %v", symbol, tf, err)
		t.SendMarkdown(ctx, chatID, userMessage(err))
	}
}

func (t *Telegram) typing(chatID int64) {
	if _, err := t.bot.Request(tgbot.NewChatAction(chatID, tgbot.ChatTyping)); err != nil {
		logger.Debug("chat action: %v", err)
	}
}

func (t *Telegram) cmdHelp(ctx context.Context, msg *tgbot.Message, _ []string) error {
	t.SendMarkdown(ctx, msg.Chat.ID, helpText)
	return nil
}

// resolveArg находит пару по первому аргументу команды.
func (t *Telegram) resolveArg(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) == 0 {
		return "", usageError(usage)
	}
	return t.market.Resolve(ctx, args[0])
}
