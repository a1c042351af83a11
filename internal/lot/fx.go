package lot

import (
	"github.com/steelworks/opshub/internal/lot/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("lot",
	fx.Provide(repository.Provide),
)
