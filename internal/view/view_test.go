package view

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/conflict"
	"github.com/steelworks/opshub/internal/integrate"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	"github.com/steelworks/opshub/internal/validation"
	"go.uber.org/zap"
)

func buildSnapshot(t *testing.T, production, quality, shipping []recorddomain.Row) *Snapshot {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	res := integrate.New(node, clk).Integrate(production, quality, shipping)
	flags := conflict.New(clk).Resolve(res)
	flags = append(flags, validation.New(clk).DetectAllOutliers(res)...)
	for _, key := range res.Order {
		rec := res.Records[key]
		rec.Lot.Status = LotStatus(rec)
	}

	return &Snapshot{
		RunID:       "test-run",
		GeneratedAt: clk.Now(),
		Records:     res.Records,
		Order:       res.Order,
		Flags:       flags,
		Orphans:     res.Orphans,
	}
}

func prodRow(code, date, line string) recorddomain.Row {
	return recorddomain.Row{
		"lot_code":           code,
		"production_date":    date,
		"production_line_id": line,
		"shift":              "Day",
		"units_planned":      "100",
		"units_actual":       "95",
		"downtime_minutes":   "10",
	}
}

func qualRow(code, date, isPass, defectType string) recorddomain.Row {
	row := recorddomain.Row{
		"lot_code":        code,
		"production_date": date,
		"inspection_date": date,
		"is_pass":         isPass,
		"inspector_id":    "QA-1",
	}
	if defectType != "" {
		row["defect_type"] = defectType
		row["defect_count"] = "3"
	}
	return row
}

func shipRow(code, date, status string) recorddomain.Row {
	return recorddomain.Row{
		"lot_code":          code,
		"production_date":   date,
		"ship_date":         date,
		"destination_state": "OH",
		"carrier":           "RoadRunner",
		"qty_shipped":       "95",
		"shipment_status":   status,
	}
}

func TestLotStatusPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		quality  []recorddomain.Row
		shipping []recorddomain.Row
		want     lotdomain.Status
	}{
		{
			name: "no quality",
			want: lotdomain.StatusPendingInspection,
		},
		{
			name:    "failed quality",
			quality: []recorddomain.Row{qualRow("42", "2024-03-05", "false", "surface")},
			want:    lotdomain.StatusFailedQuality,
		},
		{
			name:     "failed quality overrides shipping",
			quality:  []recorddomain.Row{qualRow("42", "2024-03-05", "false", "surface")},
			shipping: []recorddomain.Row{shipRow("42", "2024-03-05", "Shipped")},
			want:     lotdomain.StatusFailedQuality,
		},
		{
			name:    "passed quality no shipping",
			quality: []recorddomain.Row{qualRow("42", "2024-03-05", "true", "")},
			want:    lotdomain.StatusPassedQuality,
		},
		{
			name:     "in shipment",
			quality:  []recorddomain.Row{qualRow("42", "2024-03-05", "true", "")},
			shipping: []recorddomain.Row{shipRow("42", "2024-03-05", "In Transit")},
			want:     lotdomain.StatusInShipment,
		},
		{
			name:     "shipped",
			quality:  []recorddomain.Row{qualRow("42", "2024-03-05", "true", "")},
			shipping: []recorddomain.Row{shipRow("42", "2024-03-05", "Shipped")},
			want:     lotdomain.StatusShipped,
		},
		{
			name:     "shipped without quality stays pending",
			shipping: []recorddomain.Row{shipRow("42", "2024-03-05", "Shipped")},
			want:     lotdomain.StatusPendingInspection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := buildSnapshot(t,
				[]recorddomain.Row{prodRow("42", "2024-03-05", "LINE-A")},
				tc.quality, tc.shipping,
			)
			rec := snapshot.Records[integrate.Key{LotCode: "42", ProductionDate: "2024-03-05"}]
			if rec.Lot.Status != tc.want {
				t.Fatalf("status = %q, want %q", rec.Lot.Status, tc.want)
			}
		})
	}
}

func TestLotStatusBeforeResolutionIsInProduction(t *testing.T) {
	rec := &integrate.IntegratedRecord{
		Lot:        &lotdomain.Lot{LotCode: "42"},
		Production: &recorddomain.ProductionRecord{LotCode: "42"},
	}
	if got := LotStatus(rec); got != lotdomain.StatusInProduction {
		t.Fatalf("status before resolution = %q", got)
	}
}

func TestCurrentReturnsErrNoSnapshot(t *testing.T) {
	svc := New(zap.NewNop())
	if _, err := svc.Current(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if _, err := svc.SearchLotStatus("42"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot from reducers, got %v", err)
	}
}

func TestPublishSwapsAtomically(t *testing.T) {
	svc := New(zap.NewNop())
	first := buildSnapshot(t, []recorddomain.Row{prodRow("42", "2024-03-05", "LINE-A")}, nil, nil)
	svc.Publish(first)

	got, err := svc.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got.RunID != "test-run" || len(got.Order) != 1 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	second := buildSnapshot(t, []recorddomain.Row{
		prodRow("42", "2024-03-05", "LINE-A"),
		prodRow("43", "2024-03-05", "LINE-A"),
	}, nil, nil)
	svc.Publish(second)

	got, _ = svc.Current()
	if len(got.Order) != 2 {
		t.Fatalf("stale snapshot still visible: %+v", got.Order)
	}
}

func TestSearchLotStatusNormalizesAndPicksMostRecent(t *testing.T) {
	svc := New(zap.NewNop())
	svc.Publish(buildSnapshot(t,
		[]recorddomain.Row{
			prodRow("42", "2024-03-05", "LINE-A"),
			prodRow("42", "2024-03-12", "LINE-A"),
		},
		[]recorddomain.Row{qualRow("42", "2024-03-05", "true", "")},
		nil,
	))

	result, err := svc.SearchLotStatus("0042")
	if err != nil {
		t.Fatalf("SearchLotStatus: %v", err)
	}
	if result.LotCode != "42" {
		t.Fatalf("lot code not normalized: %q", result.LotCode)
	}
	if result.ProductionDate != "2024-03-12" {
		t.Fatalf("most recent date should win, got %q", result.ProductionDate)
	}
	if result.Status != lotdomain.StatusPendingInspection {
		t.Fatalf("status = %q", result.Status)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[1].Status != lotdomain.StatusPassedQuality {
		t.Fatalf("older match status = %q", result.Matches[1].Status)
	}

	if _, err := svc.SearchLotStatus("nope"); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("expected ErrLotNotFound, got %v", err)
	}
}

func TestLineHealthAggregatesByLineAndWeek(t *testing.T) {
	svc := New(zap.NewNop())
	svc.Publish(buildSnapshot(t,
		[]recorddomain.Row{
			prodRow("1", "2024-03-05", "LINE-A"), // week of 2024-03-04
			prodRow("2", "2024-03-06", "LINE-A"),
			prodRow("3", "2024-03-12", "LINE-A"), // week of 2024-03-11
			prodRow("4", "2024-03-05", "LINE-B"),
		},
		[]recorddomain.Row{
			qualRow("1", "2024-03-05", "false", "surface"),
			qualRow("2", "2024-03-06", "true", ""),
		},
		nil,
	))

	rows, err := svc.LineHealth()
	if err != nil {
		t.Fatalf("LineHealth: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.LineID != "LINE-A" || first.WeekStart != "2024-03-04" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.LotsProduced != 2 || first.LotsInspected != 2 || first.LotsFailed != 1 {
		t.Fatalf("counts wrong: %+v", first)
	}
	if first.ErrorRate != 0.5 {
		t.Fatalf("error rate = %f", first.ErrorRate)
	}
	if first.UnitsPlanned != 200 || first.UnitsActual != 190 || first.DowntimeMinutes != 20 {
		t.Fatalf("unit totals wrong: %+v", first)
	}
}

func TestDefectTrendsBucketsFailuresByWeek(t *testing.T) {
	svc := New(zap.NewNop())
	svc.Publish(buildSnapshot(t,
		[]recorddomain.Row{
			prodRow("1", "2024-03-05", "LINE-A"),
			prodRow("2", "2024-03-06", "LINE-A"),
			prodRow("3", "2024-03-12", "LINE-A"),
		},
		[]recorddomain.Row{
			qualRow("1", "2024-03-05", "false", "surface"),
			qualRow("2", "2024-03-06", "false", "surface"),
			qualRow("3", "2024-03-12", "false", "dimension"),
		},
		nil,
	))

	points, err := svc.DefectTrends("", "")
	if err != nil {
		t.Fatalf("DefectTrends: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %+v", points)
	}
	if points[0].DefectType != "dimension" || points[0].Count != 1 {
		t.Fatalf("unexpected point: %+v", points[0])
	}
	if points[1].DefectType != "surface" || points[1].Count != 2 || points[1].WeekStart != "2024-03-04" {
		t.Fatalf("unexpected point: %+v", points[1])
	}

	bounded, err := svc.DefectTrends("2024-03-10", "")
	if err != nil {
		t.Fatalf("DefectTrends bounded: %v", err)
	}
	if len(bounded) != 1 || bounded[0].DefectType != "dimension" {
		t.Fatalf("date bounds ignored: %+v", bounded)
	}
}

func TestIntegrityReportCounts(t *testing.T) {
	svc := New(zap.NewNop())
	svc.Publish(buildSnapshot(t,
		[]recorddomain.Row{prodRow("42", "2024-03-05", "LINE-A")},
		[]recorddomain.Row{qualRow("99", "2024-03-05", "true", "")},
		[]recorddomain.Row{shipRow("42", "2024-03-05", "Shipped")},
	))

	report, err := svc.IntegrityReport()
	if err != nil {
		t.Fatalf("IntegrityReport: %v", err)
	}
	// pending inspection + missing quality + orphaned quality row
	if report.TotalFlags != 3 {
		t.Fatalf("total flags = %d: %+v", report.TotalFlags, report.ByType)
	}
	if report.PendingInspection != 1 {
		t.Fatalf("pending count = %d", report.PendingInspection)
	}
	if report.Orphans != 1 {
		t.Fatalf("orphan count = %d", report.Orphans)
	}
	if report.DateConflicts != 0 {
		t.Fatalf("date conflict count = %d", report.DateConflicts)
	}
}
