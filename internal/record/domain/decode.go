package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldError reports a value that could not be decoded. Decoding is
// lenient: the record is still produced, with a zero value standing in
// for the offending field. Range checks such as sign are left to
// validation, which sees the decoded value as-is.
type FieldError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %q)", e.Field, e.Reason, e.Value)
}

// DecodeProduction builds a ProductionRecord from a normalized row.
func DecodeProduction(row Row) (ProductionRecord, []FieldError) {
	var errs []FieldError
	rec := ProductionRecord{
		LotCode:          row[FieldLotCode],
		ProductionDate:   row[FieldProductionDate],
		ProductionLineID: row[FieldProductionLineID],
		SourceUpdatedAt:  row[FieldSourceUpdated],
	}
	rec.Shift, errs = decodeEnum(row, FieldShift, ValidShifts, errs)
	rec.UnitsPlanned, errs = decodeInt(row, FieldUnitsPlanned, errs)
	rec.UnitsActual, errs = decodeInt(row, FieldUnitsActual, errs)
	rec.DowntimeMinutes, errs = decodeInt(row, FieldDowntimeMinutes, errs)
	return rec, errs
}

// DecodeQuality builds a QualityRecord from a normalized row.
func DecodeQuality(row Row) (QualityRecord, []FieldError) {
	var errs []FieldError
	rec := QualityRecord{
		LotCode:         row[FieldLotCode],
		ProductionDate:  row[FieldProductionDate],
		InspectionDate:  row[FieldInspectionDate],
		InspectorID:     row[FieldInspectorID],
		DefectType:      row[FieldDefectType],
		SourceUpdatedAt: row[FieldSourceUpdated],
	}
	rec.IsPass, errs = decodeBool(row, FieldIsPass, errs)
	rec.DefectCount, errs = decodeInt(row, FieldDefectCount, errs)
	return rec, errs
}

// DecodeShipping builds a ShippingRecord from a normalized row.
func DecodeShipping(row Row) (ShippingRecord, []FieldError) {
	var errs []FieldError
	rec := ShippingRecord{
		LotCode:          row[FieldLotCode],
		ProductionDate:   row[FieldProductionDate],
		ShipDate:         row[FieldShipDate],
		DestinationState: row[FieldDestinationState],
		Carrier:          row[FieldCarrier],
		SourceUpdatedAt:  row[FieldSourceUpdated],
	}
	rec.QtyShipped, errs = decodeInt(row, FieldQtyShipped, errs)
	rec.ShipmentStatus, errs = decodeEnum(row, FieldShipmentStatus, ValidShipmentStatuses, errs)
	return rec, errs
}

func decodeInt(row Row, field string, errs []FieldError) (int, []FieldError) {
	raw := strings.TrimSpace(row[field])
	if raw == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, append(errs, FieldError{Field: field, Value: raw, Reason: "not an integer"})
	}
	return n, errs
}

func decodeBool(row Row, field string, errs []FieldError) (bool, []FieldError) {
	raw := strings.TrimSpace(row[field])
	switch strings.ToLower(raw) {
	case "true", "t", "1", "yes", "y", "pass":
		return true, errs
	case "false", "f", "0", "no", "n", "fail", "":
		return false, errs
	default:
		return false, append(errs, FieldError{Field: field, Value: raw, Reason: "not a boolean"})
	}
}

func decodeEnum(row Row, field string, allowed []string, errs []FieldError) (string, []FieldError) {
	raw := strings.TrimSpace(row[field])
	if raw == "" {
		return "", errs
	}
	for _, candidate := range allowed {
		if strings.EqualFold(raw, candidate) {
			return candidate, errs
		}
	}
	return raw, append(errs, FieldError{Field: field, Value: raw, Reason: "unrecognized value"})
}
