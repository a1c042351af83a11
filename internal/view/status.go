package view

import (
	"github.com/steelworks/opshub/internal/integrate"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

// LotStatus derives the lifecycle stage of a lot from its component
// set. The precedence is strict: a failed inspection overrides any
// shipping presence, because only forward progression is modeled.
func LotStatus(rec *integrate.IntegratedRecord) lotdomain.Status {
	if rec.Quality == nil {
		if rec.Lot != nil && !rec.Lot.PendingInspection {
			return lotdomain.StatusInProduction
		}
		return lotdomain.StatusPendingInspection
	}
	if !rec.Quality.IsPass {
		return lotdomain.StatusFailedQuality
	}
	if rec.Shipping == nil {
		return lotdomain.StatusPassedQuality
	}
	if rec.Shipping.ShipmentStatus == recorddomain.ShipmentShipped {
		return lotdomain.StatusShipped
	}
	return lotdomain.StatusInShipment
}
