package validation

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/integrate"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

func buildResult(t *testing.T, production, quality, shipping []recorddomain.Row) *integrate.Result {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	it := integrate.New(node, clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
	return it.Integrate(production, quality, shipping)
}

func prodRow(code, date string) recorddomain.Row {
	return recorddomain.Row{
		"lot_code":           code,
		"production_date":    date,
		"production_line_id": "LINE-A",
		"shift":              "Day",
		"units_planned":      "100",
		"units_actual":       "95",
		"downtime_minutes":   "0",
	}
}

func shipRow(code, prodDate, shipDate string) recorddomain.Row {
	return recorddomain.Row{
		"lot_code":          code,
		"production_date":   prodDate,
		"ship_date":         shipDate,
		"destination_state": "OH",
		"carrier":           "RoadRunner",
		"qty_shipped":       "95",
		"shipment_status":   "Shipped",
	}
}

func newValidator() *Validator {
	return New(clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestDateConflictWhenShippedBeforeProduction(t *testing.T) {
	res := buildResult(t,
		[]recorddomain.Row{prodRow("42", "2024-02-01")},
		nil,
		[]recorddomain.Row{shipRow("42", "2024-02-01", "2024-01-30")},
	)

	flags := newValidator().DetectAllOutliers(res)
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d: %v", len(flags), flags)
	}
	flag := flags[0]
	if flag.FlagType != integritydomain.FlagDateConflict {
		t.Fatalf("flag type = %q", flag.FlagType)
	}
	if flag.Severity != integritydomain.SeverityCritical {
		t.Fatalf("severity = %q", flag.Severity)
	}

	merged := res.Records[integrate.Key{LotCode: "42", ProductionDate: "2024-02-01"}]
	if !merged.Lot.DateConflict || !merged.Lot.HasIntegrityIssue {
		t.Fatalf("lot markers wrong: %+v", merged.Lot)
	}
}

func TestSameDayShipmentIsValid(t *testing.T) {
	res := buildResult(t,
		[]recorddomain.Row{prodRow("42", "2024-02-01")},
		nil,
		[]recorddomain.Row{shipRow("42", "2024-02-01", "2024-02-01")},
	)

	flags := newValidator().DetectAllOutliers(res)
	if len(flags) != 0 {
		t.Fatalf("same-day shipment must not flag, got %v", flags)
	}

	merged := res.Records[integrate.Key{LotCode: "42", ProductionDate: "2024-02-01"}]
	if merged.Lot.DateConflict {
		t.Fatal("same-day shipment must not mark a date conflict")
	}
}

func TestUnparseableDatesAreSkippedByDateOrderCheck(t *testing.T) {
	res := buildResult(t,
		[]recorddomain.Row{prodRow("42", "2024-02-01")},
		nil,
		[]recorddomain.Row{shipRow("42", "2024-02-01", "someday")},
	)

	flags := newValidator().DetectAllOutliers(res)
	for _, f := range flags {
		if f.FlagType == integritydomain.FlagDateConflict {
			t.Fatalf("uncomparable dates must not produce a date conflict: %v", f)
		}
	}
}

func TestInvalidFieldValuesAreWarnings(t *testing.T) {
	row := prodRow("42", "2024-02-01")
	row["shift"] = "Graveyard"

	res := buildResult(t, []recorddomain.Row{row}, nil, nil)
	flags := newValidator().DetectAllOutliers(res)

	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d: %v", len(flags), flags)
	}
	if flags[0].FlagType != integritydomain.FlagInvalidFieldValue {
		t.Fatalf("flag type = %q", flags[0].FlagType)
	}
	if flags[0].Severity != integritydomain.SeverityWarning {
		t.Fatalf("severity = %q", flags[0].Severity)
	}

	merged := res.Records[integrate.Key{LotCode: "42", ProductionDate: "2024-02-01"}]
	if merged.Production == nil {
		t.Fatal("invalid record must still participate in the join")
	}
}

func TestNegativeQuantitySurvivesDecodeAndIsFlagged(t *testing.T) {
	ship := shipRow("42", "2024-02-01", "2024-02-02")
	ship["qty_shipped"] = "-5"

	res := buildResult(t,
		[]recorddomain.Row{prodRow("42", "2024-02-01")},
		nil,
		[]recorddomain.Row{ship},
	)

	merged := res.Records[integrate.Key{LotCode: "42", ProductionDate: "2024-02-01"}]
	if merged.Shipping.QtyShipped != -5 {
		t.Fatalf("decoded qty_shipped = %d, want -5", merged.Shipping.QtyShipped)
	}

	flags := newValidator().DetectAllOutliers(res)
	found := false
	for _, f := range flags {
		if f.FlagType == integritydomain.FlagInvalidFieldValue {
			found = true
			if f.Severity != integritydomain.SeverityWarning {
				t.Fatalf("severity = %q", f.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("negative quantity must raise an invalid field flag, got %v", flags)
	}
}

func TestNoDuplicateConditionPerLotPerRun(t *testing.T) {
	res := buildResult(t,
		[]recorddomain.Row{prodRow("42", "2024-02-01")},
		nil,
		[]recorddomain.Row{shipRow("42", "2024-02-01", "2024-01-30")},
	)

	v := newValidator()
	first := v.DetectAllOutliers(res)
	second := v.DetectAllOutliers(res)
	if len(first) != len(second) {
		t.Fatalf("outlier detection must be stable: %d vs %d", len(first), len(second))
	}
	types := map[string]int{}
	for _, f := range first {
		types[f.FlagType]++
	}
	for flagType, n := range types {
		if n > 1 {
			t.Fatalf("condition %q reported %d times for one lot", flagType, n)
		}
	}
}

func TestValidateProductionRecord(t *testing.T) {
	rec := &recorddomain.ProductionRecord{
		LotCode:          "42",
		ProductionDate:   "2024-02-01",
		ProductionLineID: "LINE-A",
		Shift:            "Night",
		UnitsPlanned:     100,
		UnitsActual:      95,
	}
	if ok, reason := ValidateProductionRecord(rec); !ok {
		t.Fatalf("valid record rejected: %s", reason)
	}

	rec.Shift = "Lunch"
	if ok, _ := ValidateProductionRecord(rec); ok {
		t.Fatal("unknown shift accepted")
	}
}

func TestValidateShippingRecord(t *testing.T) {
	rec := &recorddomain.ShippingRecord{
		LotCode:          "42",
		ShipDate:         "2024-02-03",
		DestinationState: "OH",
		Carrier:          "RoadRunner",
		QtyShipped:       95,
		ShipmentStatus:   "In Transit",
	}
	if ok, reason := ValidateShippingRecord(rec); !ok {
		t.Fatalf("valid record rejected: %s", reason)
	}

	rec.ShipmentStatus = "Lost"
	if ok, _ := ValidateShippingRecord(rec); ok {
		t.Fatal("unknown shipment status accepted")
	}
}
