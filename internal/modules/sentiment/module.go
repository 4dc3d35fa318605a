package sentiment

import (
	"go.uber.org/fx"

	"crypto_bot/internal/modules/sentiment/service"
)

func Module() fx.Option {
	return fx.Module("sentiment",
		fx.Provide(
			service.NewClient,
		),
	)
}
