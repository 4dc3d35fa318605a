package alarms

import (
	"context"

	"go.uber.org/fx"

	"crypto_bot/internal/modules/alarms/service"
	"crypto_bot/internal/modules/alarms/service/store"
	binance "crypto_bot/internal/modules/binance/service"
	"crypto_bot/internal/modules/config"
	"crypto_bot/pkg/db"
)

// NewStore выбирает хранилище по db.driver.
func NewStore(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, pg *db.PgTxManager) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		st, err = store.NewPG(ctx, pg)
	case config.DriverSQLite:
		st, err = store.NewSQLite(cfg.DB.Path)
	default:
		st = store.NewMemory()
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return st.Close() },
	})
	return st, nil
}

func Module() fx.Option {
	return fx.Module("alarms",
		fx.Provide(
			NewStore,
			func(q *binance.Quotes) service.PriceSource { return q },
			service.NewService,
			service.NewChecker,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Checker) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error { return c.Start() },
				OnStop: func(context.Context) error {
					c.Stop()
					return nil
				},
			})
		}),
	)
}
