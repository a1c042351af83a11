package integrity

import (
	"github.com/steelworks/opshub/internal/integrity/repository"
	"github.com/steelworks/opshub/internal/integrity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("integrity",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
