package binance

import (
	"context"

	"go.uber.org/fx"

	"crypto_bot/internal/modules/binance/service"
	"crypto_bot/internal/modules/config"
)

// Module поднимает REST-клиент Binance и поток цен !miniTicker@arr.
// Список пар грузит bootstrap.
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			service.NewClient,
			service.NewStream,
			service.NewQuotes,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *service.Stream) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					if !cfg.Binance.Stream {
						close(done)
						return nil
					}
					go func() {
						defer close(done)
						s.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}
