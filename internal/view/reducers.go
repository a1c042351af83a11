package view

import (
	"sort"
	"time"

	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	"github.com/steelworks/opshub/internal/normalize"
)

// LineHealthRow aggregates one production line over one ISO week.
type LineHealthRow struct {
	LineID          string  `json:"line_id"`
	WeekStart       string  `json:"week_start"`
	LotsProduced    int     `json:"lots_produced"`
	LotsInspected   int     `json:"lots_inspected"`
	LotsFailed      int     `json:"lots_failed"`
	ErrorRate       float64 `json:"error_rate"`
	UnitsPlanned    int     `json:"units_planned"`
	UnitsActual     int     `json:"units_actual"`
	DowntimeMinutes int     `json:"downtime_minutes"`
}

// DefectTrendPoint counts failed inspections of one defect type in one
// ISO week.
type DefectTrendPoint struct {
	DefectType string `json:"defect_type"`
	WeekStart  string `json:"week_start"`
	Count      int    `json:"count"`
}

// LotStatusEntry is the derived state of one (lot_code, date) match.
type LotStatusEntry struct {
	ProductionDate    string           `json:"production_date"`
	Status            lotdomain.Status `json:"status"`
	HasProduction     bool             `json:"has_production"`
	HasQuality        bool             `json:"has_quality"`
	HasShipping       bool             `json:"has_shipping"`
	PendingInspection bool             `json:"is_pending_inspection"`
	DateConflict      bool             `json:"has_date_conflict"`
}

// LotSearchResult answers a single-lot status lookup. Status reflects
// the most recent production date; every date match is listed.
type LotSearchResult struct {
	LotCode        string           `json:"lot_code"`
	Status         lotdomain.Status `json:"status"`
	ProductionDate string           `json:"production_date"`
	Matches        []LotStatusEntry `json:"matches"`
}

// TypeCount is one row of the per-type flag breakdown.
type TypeCount struct {
	FlagType string `json:"flag_type"`
	Count    int    `json:"count"`
}

// SeverityCountRow is one row of the per-severity flag breakdown.
type SeverityCountRow struct {
	Severity integritydomain.Severity `json:"severity"`
	Count    int                      `json:"count"`
}

// IntegrityReport summarizes the findings of the published cycle.
type IntegrityReport struct {
	RunID             string             `json:"run_id"`
	GeneratedAt       time.Time          `json:"generated_at"`
	TotalFlags        int                `json:"total_flags"`
	BySeverity        []SeverityCountRow `json:"by_severity"`
	ByType            []TypeCount        `json:"by_type"`
	PendingInspection int                `json:"pending_inspection_lots"`
	DateConflicts     int                `json:"date_conflict_lots"`
	Orphans           int                `json:"orphan_rows"`
}

// LineHealth reduces the published snapshot to per-line weekly rows,
// sorted by line then week.
func (s *Service) LineHealth() ([]LineHealthRow, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	type lineWeek struct{ line, week string }
	buckets := make(map[lineWeek]*LineHealthRow)

	for _, key := range snapshot.Order {
		rec := snapshot.Records[key]
		if rec.Production == nil {
			continue
		}
		week, ok := weekStart(rec.Production.ProductionDate)
		if !ok {
			continue
		}
		bucket := lineWeek{line: rec.Production.ProductionLineID, week: week}
		row := buckets[bucket]
		if row == nil {
			row = &LineHealthRow{LineID: bucket.line, WeekStart: bucket.week}
			buckets[bucket] = row
		}

		row.LotsProduced++
		row.UnitsPlanned += rec.Production.UnitsPlanned
		row.UnitsActual += rec.Production.UnitsActual
		row.DowntimeMinutes += rec.Production.DowntimeMinutes
		if rec.Quality != nil {
			row.LotsInspected++
			if !rec.Quality.IsPass {
				row.LotsFailed++
			}
		}
	}

	rows := make([]LineHealthRow, 0, len(buckets))
	for _, row := range buckets {
		if row.LotsInspected > 0 {
			row.ErrorRate = float64(row.LotsFailed) / float64(row.LotsInspected)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LineID != rows[j].LineID {
			return rows[i].LineID < rows[j].LineID
		}
		return rows[i].WeekStart < rows[j].WeekStart
	})
	return rows, nil
}

// DefectTrends counts failed inspections by defect type per ISO week
// inside [start, end]. Empty bounds leave that side open.
func (s *Service) DefectTrends(start, end string) ([]DefectTrendPoint, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	type defectWeek struct{ defect, week string }
	buckets := make(map[defectWeek]int)

	for _, key := range snapshot.Order {
		rec := snapshot.Records[key]
		if rec.Quality == nil || rec.Quality.IsPass || rec.Quality.DefectType == "" {
			continue
		}
		date := rec.Quality.InspectionDate
		if date == "" {
			date = key.ProductionDate
		}
		if start != "" && date < start {
			continue
		}
		if end != "" && date > end {
			continue
		}
		week, ok := weekStart(date)
		if !ok {
			continue
		}
		buckets[defectWeek{defect: rec.Quality.DefectType, week: week}]++
	}

	points := make([]DefectTrendPoint, 0, len(buckets))
	for bucket, count := range buckets {
		points = append(points, DefectTrendPoint{
			DefectType: bucket.defect,
			WeekStart:  bucket.week,
			Count:      count,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].DefectType != points[j].DefectType {
			return points[i].DefectType < points[j].DefectType
		}
		return points[i].WeekStart < points[j].WeekStart
	})
	return points, nil
}

// SearchLotStatus looks up a lot by code. The code is normalized the
// same way ingestion normalizes it, so "0042" finds lot "42".
func (s *Service) SearchLotStatus(lotCode string) (*LotSearchResult, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	code := normalize.StripLeadingZeros(lotCode)
	var matches []LotStatusEntry
	for _, key := range snapshot.Order {
		if key.LotCode != code {
			continue
		}
		rec := snapshot.Records[key]
		matches = append(matches, LotStatusEntry{
			ProductionDate:    key.ProductionDate,
			Status:            LotStatus(rec),
			HasProduction:     rec.Production != nil,
			HasQuality:        rec.Quality != nil,
			HasShipping:       rec.Shipping != nil,
			PendingInspection: rec.Lot.PendingInspection,
			DateConflict:      rec.Lot.DateConflict,
		})
	}
	if len(matches) == 0 {
		return nil, ErrLotNotFound
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ProductionDate > matches[j].ProductionDate
	})
	return &LotSearchResult{
		LotCode:        code,
		Status:         matches[0].Status,
		ProductionDate: matches[0].ProductionDate,
		Matches:        matches,
	}, nil
}

// IntegrityReport summarizes flags, lifecycle markers and orphans for
// the published cycle.
func (s *Service) IntegrityReport() (*IntegrityReport, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{
		RunID:       snapshot.RunID,
		GeneratedAt: snapshot.GeneratedAt,
		TotalFlags:  len(snapshot.Flags),
		Orphans:     len(snapshot.Orphans),
	}

	bySeverity := make(map[integritydomain.Severity]int)
	byType := make(map[string]int)
	for _, flag := range snapshot.Flags {
		bySeverity[flag.Severity]++
		byType[flag.FlagType]++
	}
	for _, severity := range []integritydomain.Severity{
		integritydomain.SeverityWarning,
		integritydomain.SeverityError,
		integritydomain.SeverityCritical,
	} {
		if count, ok := bySeverity[severity]; ok {
			report.BySeverity = append(report.BySeverity, SeverityCountRow{Severity: severity, Count: count})
		}
	}
	for flagType, count := range byType {
		report.ByType = append(report.ByType, TypeCount{FlagType: flagType, Count: count})
	}
	sort.Slice(report.ByType, func(i, j int) bool {
		return report.ByType[i].FlagType < report.ByType[j].FlagType
	})

	for _, key := range snapshot.Order {
		rec := snapshot.Records[key]
		if rec.Lot.PendingInspection {
			report.PendingInspection++
		}
		if rec.Lot.DateConflict {
			report.DateConflicts++
		}
	}
	return report, nil
}

// weekStart returns the Monday of the ISO week containing the date.
func weekStart(date string) (string, bool) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", false
	}
	offset := (int(parsed.Weekday()) + 6) % 7
	return parsed.AddDate(0, 0, -offset).Format("2006-01-02"), true
}
