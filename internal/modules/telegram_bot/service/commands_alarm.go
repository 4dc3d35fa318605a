package service

import (
	"context"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	alarms "crypto_bot/internal/modules/alarms/service"
)

func senderID(msg *tgbot.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

// cmdAlarm: /alarm BTC 50000. Цена может быть с разделителями: 50,000 или $0.35.
func (t *Telegram) cmdAlarm(ctx context.Context, msg *tgbot.Message, args []string) error {
	if len(args) < 2 {
		return usageError("Формат: `/alarm BTC 50000`")
	}
	symbol, err := t.market.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	target, err := alarms.ParseTarget(strings.Join(args[1:], ""))
	if err != nil {
		return err
	}

	a, current, err := t.alarms.Add(ctx, senderID(msg), msg.Chat.ID, symbol, target)
	if err != nil {
		return err
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatAlarmSet(a, current))
	return nil
}

func (t *Telegram) cmdAlarms(ctx context.Context, msg *tgbot.Message, _ []string) error {
	list, err := t.alarms.List(ctx, senderID(msg))
	if err != nil {
		return err
	}

	prices := make(map[string]float64)
	views := make([]alarmView, 0, len(list))
	for _, a := range list {
		p, seen := prices[a.Symbol]
		if !seen {
			if p, err = t.alarms.Price(ctx, a.Symbol); err != nil {
				p = 0
			}
			prices[a.Symbol] = p
		}
		views = append(views, alarmView{Alarm: a, Price: p, Known: p > 0})
	}
	t.SendMarkdown(ctx, msg.Chat.ID, formatAlarmList(views, t.alarms.MaxPerUser()))
	return nil
}

func (t *Telegram) cmdAlarmStop(ctx context.Context, msg *tgbot.Message, args []string) error {
	symbol, err := t.resolveArg(ctx, args, "Формат: `/alarmstop BTC`")
	if err != nil {
		return err
	}
	n, err := t.alarms.Stop(ctx, senderID(msg), symbol)
	if err != nil {
		return err
	}
	if n == 0 {
		t.SendMarkdown(ctx, msg.Chat.ID, "🔕 По *"+esc(symbol)+"* алертов не было")
		return nil
	}
	t.SendMarkdown(ctx, msg.Chat.ID, "🗑 Снято алертов по *"+esc(symbol)+"*: "+strconv.Itoa(n))
	return nil
}
