package service

import (
	"context"
	"errors"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	alarms "crypto_bot/internal/modules/alarms/service"
	binance "crypto_bot/internal/modules/binance/service"
	commentary "crypto_bot/internal/modules/commentary/service"
)

// usageError: команда вызвана без нужных аргументов, текст уходит пользователю как есть.
type usageError string

func (e usageError) Error() string { return string(e) }

// addressed решает, обращено ли сообщение к боту.
// В личке отвечаем на всё, в группах только на команды, упоминания и ответы на сообщения бота.
func addressed(msg *tgbot.Message, self tgbot.User) bool {
	if msg == nil || msg.Chat == nil {
		return false
	}
	if msg.Chat.IsPrivate() {
		return true
	}
	if msg.IsCommand() {
		_, to, ok := strings.Cut(msg.CommandWithAt(), "@")
		return !ok || strings.EqualFold(to, self.UserName)
	}
	if self.UserName != "" && strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(self.UserName)) {
		return true
	}
	if r := msg.ReplyToMessage; r != nil && r.From != nil && r.From.ID == self.ID {
		return true
	}
	return false
}

// heavy: команды, которые ходят за историей свечей или в модель.
func heavy(cmd string) bool {
	switch cmd {
	case "analyze", "signals", "breakout", "predict":
		return true
	}
	return false
}

func userMessage(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return string(usage)
	case errors.Is(err, binance.ErrUnknownSymbol):
		return "🤷 Не нашёл такую монету. Пример: `/price BTC`"
	case errors.Is(err, alarms.ErrLimit):
		return "🚫 Достигнут лимит алертов. Удали лишние: `/alarmstop BTC`"
	case errors.Is(err, alarms.ErrBadTarget):
		return "🤔 Не понял цену. Пример: `/alarm BTC 50000`"
	case errors.Is(err, commentary.ErrDisabled):
		return "🔌 Комментарии модели отключены: не задан ключ OpenAI."
	case errors.Is(err, context.DeadlineExceeded):
		return "⌛ Источник данных отвечает слишком долго, попробуй позже."
	}
	return "⚠️ Не удалось получить данные, попробуй позже."
}
