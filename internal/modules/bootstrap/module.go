package bootstrap

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	bootstrap "crypto_bot/internal/modules/bootstrap/service"
	binance "crypto_bot/internal/modules/binance/service"
	"crypto_bot/pkg/logger"
)

// symbolsRefresh: как часто перечитывать список пар: листинги и делистинги случаются.
const symbolsRefresh = "@every 6h"

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(c *binance.Client) bootstrap.SymbolLoader { return c },
			bootstrap.NewWarmuper,
		),
		fx.Invoke(func(lc fx.Lifecycle, wu *bootstrap.Warmuper) error {
			ctx, cancel := context.WithCancel(context.Background())
			c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
			if _, err := c.AddFunc(symbolsRefresh, func() { warmup(ctx, wu) }); err != nil {
				cancel()
				return err
			}

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go warmup(ctx, wu)
					c.Start()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-c.Stop().Done():
					case <-stopCtx.Done():
					}
					return nil
				},
			})
			return nil
		}),
	)
}

func warmup(ctx context.Context, wu *bootstrap.Warmuper) {
	n, err := wu.Warmup(ctx)
	if err != nil {
		logger.Warn("[BOOT] список пар не загружен, работаем по синонимам: %v", err)
		return
	}
	logger.Info("[BOOT] загружено пар: %d", n)
}
