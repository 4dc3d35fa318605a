package telegram

import (
	"context"

	"go.uber.org/fx"

	alarms "crypto_bot/internal/modules/alarms/service"
	binance "crypto_bot/internal/modules/binance/service"
	commentary "crypto_bot/internal/modules/commentary/service"
	sentiment "crypto_bot/internal/modules/sentiment/service"
	"crypto_bot/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Адаптеры зависимостей команд
		fx.Provide(
			func(c *binance.Client) service.Market { return c },
			func(c *sentiment.Client) service.Sentiment { return c },
			func(c *commentary.Client) service.Commentator { return c },
			func(s *alarms.Service) service.Alarms { return s },
		),

		// 2. Сервис Telegram
		fx.Provide(
			service.NewTelegram,
		),

		// 3. Адаптер: *service.Telegram -> alarms.Notifier
		fx.Provide(
			func(t *service.Telegram) alarms.Notifier { return t },
		),

		// Запуск цикла апдейтов через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return t.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
