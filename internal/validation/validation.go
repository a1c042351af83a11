package validation

import (
	"fmt"
	"time"

	"github.com/steelworks/opshub/internal/clock"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"github.com/steelworks/opshub/internal/integrate"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

// Validator runs the logical checks over an integrated set: shipment
// dates that precede production, and per-record field validity.
// Invalid records stay in the join; findings are reported, never used
// to exclude data.
type Validator struct {
	clock clock.Clock
}

func New(clk clock.Clock) *Validator {
	return &Validator{clock: clk}
}

// DetectAllOutliers returns the union of the date-order check and the
// per-record field checks across the whole set. The same condition is
// reported at most once per lot per run, and the result does not depend
// on processing order beyond the stable first-seen iteration.
func (v *Validator) DetectAllOutliers(res *integrate.Result) []*integritydomain.Flag {
	now := v.clock.Now()
	var flags []*integritydomain.Flag
	seen := make(map[string]bool)

	emit := func(key integrate.Key, flag *integritydomain.Flag) {
		dedupe := key.LotCode + "|" + key.ProductionDate + "|" + flag.FlagType
		if seen[dedupe] {
			return
		}
		seen[dedupe] = true
		flags = append(flags, flag)
	}

	for _, key := range res.Order {
		merged := res.Records[key]
		lotID := merged.Lot.ID

		if conflictFlag := v.checkDateOrder(merged, now); conflictFlag != nil {
			emit(key, conflictFlag)
		}

		for _, finding := range recordFindings(merged) {
			emit(key, &integritydomain.Flag{
				LotID:          &lotID,
				LotCode:        key.LotCode,
				ProductionDate: key.ProductionDate,
				FlagType:       integritydomain.FlagInvalidFieldValue,
				Severity:       integritydomain.SeverityWarning,
				Description:    fmt.Sprintf("lot %s (%s): %s", key.LotCode, key.ProductionDate, finding),
				DetectedAt:     now,
			})
		}
	}

	return flags
}

// checkDateOrder flags a shipment recorded before its production date.
// Same-day shipment is valid. Dates that failed normalization are not
// comparable and are skipped here; they are already reported upstream.
func (v *Validator) checkDateOrder(merged *integrate.IntegratedRecord, now time.Time) *integritydomain.Flag {
	if merged.Production == nil || merged.Shipping == nil {
		return nil
	}
	prodDate := merged.Production.ProductionDate
	shipDate := merged.Shipping.ShipDate
	if !canonicalDate(prodDate) || !canonicalDate(shipDate) {
		return nil
	}
	if shipDate >= prodDate {
		return nil
	}

	merged.Lot.DateConflict = true
	merged.Lot.HasIntegrityIssue = true
	lotID := merged.Lot.ID
	return &integritydomain.Flag{
		LotID:          &lotID,
		LotCode:        merged.Lot.LotCode,
		ProductionDate: merged.Lot.ProductionDate,
		FlagType:       integritydomain.FlagDateConflict,
		Severity:       integritydomain.SeverityCritical,
		Description:    fmt.Sprintf("lot %s shipped %s before its production date %s", merged.Lot.LotCode, shipDate, prodDate),
		DetectedAt:     now,
	}
}

func recordFindings(merged *integrate.IntegratedRecord) []string {
	var findings []string
	if merged.Production != nil {
		if ok, reason := ValidateProductionRecord(merged.Production); !ok {
			findings = append(findings, "production: "+reason)
		}
	}
	if merged.Quality != nil {
		if ok, reason := ValidateQualityRecord(merged.Quality); !ok {
			findings = append(findings, "quality: "+reason)
		}
	}
	if merged.Shipping != nil {
		if ok, reason := ValidateShippingRecord(merged.Shipping); !ok {
			findings = append(findings, "shipping: "+reason)
		}
	}
	return findings
}

// ValidateProductionRecord checks field validity independent of joins.
func ValidateProductionRecord(rec *recorddomain.ProductionRecord) (bool, string) {
	switch {
	case rec.LotCode == "":
		return false, "lot_code is empty"
	case rec.ProductionDate == "":
		return false, "production_date is empty"
	case !canonicalDate(rec.ProductionDate):
		return false, fmt.Sprintf("production_date %q is not a calendar date", rec.ProductionDate)
	case rec.ProductionLineID == "":
		return false, "production_line_id is empty"
	case !within(rec.Shift, recorddomain.ValidShifts):
		return false, fmt.Sprintf("shift %q outside the defined value set", rec.Shift)
	case rec.UnitsPlanned < 0 || rec.UnitsActual < 0:
		return false, "unit counts must be non-negative"
	case rec.DowntimeMinutes < 0:
		return false, "downtime_minutes must be non-negative"
	}
	return true, ""
}

// ValidateQualityRecord checks field validity independent of joins.
func ValidateQualityRecord(rec *recorddomain.QualityRecord) (bool, string) {
	switch {
	case rec.LotCode == "":
		return false, "lot_code is empty"
	case rec.InspectionDate == "":
		return false, "inspection_date is empty"
	case !canonicalDate(rec.InspectionDate):
		return false, fmt.Sprintf("inspection_date %q is not a calendar date", rec.InspectionDate)
	case rec.InspectorID == "":
		return false, "inspector_id is empty"
	case rec.DefectCount < 0:
		return false, "defect_count must be non-negative"
	}
	return true, ""
}

// ValidateShippingRecord checks field validity independent of joins.
func ValidateShippingRecord(rec *recorddomain.ShippingRecord) (bool, string) {
	switch {
	case rec.LotCode == "":
		return false, "lot_code is empty"
	case rec.ShipDate == "":
		return false, "ship_date is empty"
	case !canonicalDate(rec.ShipDate):
		return false, fmt.Sprintf("ship_date %q is not a calendar date", rec.ShipDate)
	case rec.DestinationState == "":
		return false, "destination_state is empty"
	case rec.Carrier == "":
		return false, "carrier is empty"
	case rec.QtyShipped < 0:
		return false, "qty_shipped must be non-negative"
	case !within(rec.ShipmentStatus, recorddomain.ValidShipmentStatuses):
		return false, fmt.Sprintf("shipment_status %q outside the defined value set", rec.ShipmentStatus)
	}
	return true, ""
}

func canonicalDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func within(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}
