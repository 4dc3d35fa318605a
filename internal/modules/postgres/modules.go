package postgres

import (
	"context"
	"fmt"

	"crypto_bot/internal/modules/config"
	"crypto_bot/pkg/db"
	"crypto_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewTxManager поднимает пул только для драйвера postgres, иначе возвращает nil.
func NewTxManager(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.DB.Driver != config.DriverPostgres {
		return nil, nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:         cfg.DB.DSN,
		MaxConns:    cfg.DB.MaxConns,
		ConnTimeout: cfg.DB.ConnTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("postgres pool closed")
			m.Close()
			return nil
		},
	})
	return m, nil
}

// Module регистрирует *db.PgTxManager как fx-провайдер.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
		),
	)
}
