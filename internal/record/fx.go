package record

import (
	"github.com/steelworks/opshub/internal/record/domain"
	"github.com/steelworks/opshub/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("record",
	fx.Provide(
		repository.ProvideStore[domain.ProductionRecord],
		repository.ProvideStore[domain.QualityRecord],
		repository.ProvideStore[domain.ShippingRecord],
	),
)
