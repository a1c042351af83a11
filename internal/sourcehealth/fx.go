package sourcehealth

import (
	"github.com/steelworks/opshub/internal/sourcehealth/repository"
	"github.com/steelworks/opshub/internal/sourcehealth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sourcehealth",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
