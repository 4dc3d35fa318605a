package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"crypto_bot/internal/modules/alarms"
	"crypto_bot/internal/modules/binance"
	"crypto_bot/internal/modules/bootstrap"
	"crypto_bot/internal/modules/commentary"
	"crypto_bot/internal/modules/config"
	"crypto_bot/internal/modules/health"
	"crypto_bot/internal/modules/postgres"
	"crypto_bot/internal/modules/sentiment"
	telegram "crypto_bot/internal/modules/telegram_bot"
	"crypto_bot/pkg/logger"
	"crypto_bot/pkg/tracing"
)

const serviceName = "crypto_bot"

func main() {
	logger.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		fx.WithLogger(func(cfg *config.Config) (fxevent.Logger, error) {
			l, err := logger.Init(cfg.Log.Level, cfg.Log.JSON)
			if err != nil {
				return nil, err
			}
			return &fxevent.ZapLogger{Logger: l}, nil
		}),
		config.Module(),
		fx.Invoke(setupTracing),
		postgres.Module(),
		health.Module(),
		binance.Module(),
		bootstrap.Module(),
		sentiment.Module(),
		commentary.Module(),
		alarms.Module(),
		telegram.Module(),
	)
	if err := app.Err(); err != nil {
		// логгер мог не подняться вместе с конфигом
		log.Fatal(err)
	}
	app.Run()
}

// setupTracing включает Jaeger, если он разрешён в конфиге.
func setupTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	_, closer, err := tracing.InitTracer(tracing.Config{
		ServiceName: serviceName,
		Host:        cfg.Tracing.Host,
		Port:        cfg.Tracing.Port,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	logger.Info("tracing enabled: %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	return nil
}
