package domain

// Source identifies one of the upstream systems feeding the hub.
type Source string

const (
	SourceProduction Source = "production"
	SourceQuality    Source = "quality"
	SourceShipping   Source = "shipping"
)

// Sources lists every upstream system in integration order.
var Sources = []Source{SourceProduction, SourceQuality, SourceShipping}

// DisplayName returns the operator-facing name of the source.
func (s Source) DisplayName() string {
	switch s {
	case SourceProduction:
		return "Production Logs"
	case SourceQuality:
		return "Quality Inspection"
	case SourceShipping:
		return "Shipping Logs"
	default:
		return string(s)
	}
}

func (s Source) Valid() bool {
	switch s {
	case SourceProduction, SourceQuality, SourceShipping:
		return true
	}
	return false
}

// Row is one raw record as read from a source file. Values stay as
// strings until decoding so normalization can run uniformly.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Field names carried by source rows.
const (
	FieldLotCode        = "lot_code"
	FieldProductionDate = "production_date"
	FieldSourceUpdated  = "source_updated_timestamp"

	FieldProductionLineID = "production_line_id"
	FieldShift            = "shift"
	FieldUnitsPlanned     = "units_planned"
	FieldUnitsActual      = "units_actual"
	FieldDowntimeMinutes  = "downtime_minutes"

	FieldInspectionDate = "inspection_date"
	FieldIsPass         = "is_pass"
	FieldInspectorID    = "inspector_id"
	FieldDefectType     = "defect_type"
	FieldDefectCount    = "defect_count"

	FieldShipDate         = "ship_date"
	FieldDestinationState = "destination_state"
	FieldCarrier          = "carrier"
	FieldQtyShipped       = "qty_shipped"
	FieldShipmentStatus   = "shipment_status"
)

// RequiredFields returns the keys a source row must carry.
func RequiredFields(s Source) []string {
	switch s {
	case SourceProduction:
		return []string{
			FieldLotCode, FieldProductionDate, FieldProductionLineID,
			FieldShift, FieldUnitsPlanned, FieldUnitsActual, FieldDowntimeMinutes,
		}
	case SourceQuality:
		return []string{FieldLotCode, FieldInspectionDate, FieldIsPass, FieldInspectorID}
	case SourceShipping:
		return []string{
			FieldLotCode, FieldShipDate, FieldDestinationState,
			FieldCarrier, FieldQtyShipped, FieldShipmentStatus,
		}
	default:
		return []string{FieldLotCode}
	}
}

// DateFields returns the fields holding calendar dates for the source.
func DateFields(s Source) []string {
	switch s {
	case SourceProduction:
		return []string{FieldProductionDate}
	case SourceQuality:
		return []string{FieldProductionDate, FieldInspectionDate}
	case SourceShipping:
		return []string{FieldProductionDate, FieldShipDate}
	default:
		return nil
	}
}

// Shift codes reported by the production system.
var ValidShifts = []string{"Day", "Swing", "Night"}

// Shipment statuses reported by the shipping system.
const (
	ShipmentPreparing = "Preparing"
	ShipmentInTransit = "In Transit"
	ShipmentShipped   = "Shipped"
	ShipmentDelayed   = "Delayed"
)

var ValidShipmentStatuses = []string{ShipmentPreparing, ShipmentInTransit, ShipmentShipped, ShipmentDelayed}
