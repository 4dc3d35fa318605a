package commentary

import (
	"go.uber.org/fx"

	"crypto_bot/internal/modules/commentary/service"
)

func Module() fx.Option {
	return fx.Module("commentary",
		fx.Provide(
			service.NewClient,
		),
	)
}
