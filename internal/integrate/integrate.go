package integrate

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steelworks/opshub/internal/clock"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

// Key identifies a lot after normalization. Two rows with the same key
// describe the same physical batch.
type Key struct {
	LotCode        string `json:"lot_code"`
	ProductionDate string `json:"production_date"`
}

// IntegratedRecord is the merged view of one lot across all sources.
// Quality and Shipping stay nil when the source never reported the lot.
type IntegratedRecord struct {
	Lot        *lotdomain.Lot
	Production *recorddomain.ProductionRecord
	Quality    *recorddomain.QualityRecord
	Shipping   *recorddomain.ShippingRecord
}

// Duplicate reports a row whose key was already claimed by an earlier
// row from the same source. The earlier row wins.
type Duplicate struct {
	Source recorddomain.Source `json:"source"`
	Key    Key                 `json:"key"`
	Index  int                 `json:"index"`
}

// Orphan reports a quality or shipping row whose key matches no
// production lot. Orphans never enter the integrated map.
type Orphan struct {
	Source recorddomain.Source `json:"source"`
	Key    Key                 `json:"key"`
	Index  int                 `json:"index"`
}

// DecodeError carries the field failures of one row.
type DecodeError struct {
	Source recorddomain.Source       `json:"source"`
	Key    Key                       `json:"key"`
	Errors []recorddomain.FieldError `json:"errors"`
}

// Result is the outcome of one integration pass.
type Result struct {
	Records      map[Key]*IntegratedRecord
	Order        []Key
	Duplicates   []Duplicate
	Orphans      []Orphan
	DecodeErrors []DecodeError
}

// Integrator merges normalized rows from the three sources into lots.
type Integrator struct {
	genID *snowflake.Node
	clock clock.Clock
}

func New(genID *snowflake.Node, clk clock.Clock) *Integrator {
	return &Integrator{genID: genID, clock: clk}
}

// Integrate joins the three sources on (lot_code, production_date).
// Production rows define the lot universe; quality and shipping rows
// attach to existing lots or become orphans. Within each source the
// first row for a key wins and later rows are reported as duplicates.
func (it *Integrator) Integrate(production, quality, shipping []recorddomain.Row) *Result {
	result := &Result{
		Records: make(map[Key]*IntegratedRecord, len(production)),
		Order:   make([]Key, 0, len(production)),
	}
	now := it.clock.Now()

	for i, row := range production {
		key := Key{
			LotCode:        row[recorddomain.FieldLotCode],
			ProductionDate: row[recorddomain.FieldProductionDate],
		}
		if _, exists := result.Records[key]; exists {
			result.Duplicates = append(result.Duplicates, Duplicate{
				Source: recorddomain.SourceProduction,
				Key:    key,
				Index:  i,
			})
			continue
		}

		rec, fieldErrs := recorddomain.DecodeProduction(row)
		if len(fieldErrs) > 0 {
			result.DecodeErrors = append(result.DecodeErrors, DecodeError{
				Source: recorddomain.SourceProduction,
				Key:    key,
				Errors: fieldErrs,
			})
		}

		lotID := it.genID.Generate()
		rec.ID = it.genID.Generate()
		rec.LotID = lotID
		rec.CreatedAt = now

		result.Records[key] = &IntegratedRecord{
			Lot: &lotdomain.Lot{
				ID:             lotID,
				LotCode:        key.LotCode,
				ProductionDate: key.ProductionDate,
				Status:         lotdomain.StatusInProduction,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			Production: &rec,
		}
		result.Order = append(result.Order, key)
	}

	it.attachQuality(result, quality, now)
	it.attachShipping(result, shipping, now)
	return result
}

func (it *Integrator) attachQuality(result *Result, rows []recorddomain.Row, now time.Time) {
	seen := make(map[Key]bool, len(rows))
	for i, row := range rows {
		key := qualityKey(row)
		if seen[key] {
			result.Duplicates = append(result.Duplicates, Duplicate{
				Source: recorddomain.SourceQuality,
				Key:    key,
				Index:  i,
			})
			continue
		}
		seen[key] = true

		merged, exists := result.Records[key]
		if !exists {
			result.Orphans = append(result.Orphans, Orphan{
				Source: recorddomain.SourceQuality,
				Key:    key,
				Index:  i,
			})
			continue
		}

		rec, fieldErrs := recorddomain.DecodeQuality(row)
		if len(fieldErrs) > 0 {
			result.DecodeErrors = append(result.DecodeErrors, DecodeError{
				Source: recorddomain.SourceQuality,
				Key:    key,
				Errors: fieldErrs,
			})
		}

		rec.ID = it.genID.Generate()
		rec.LotID = merged.Lot.ID
		rec.ProductionDate = key.ProductionDate
		rec.CreatedAt = now
		merged.Quality = &rec
	}
}

func (it *Integrator) attachShipping(result *Result, rows []recorddomain.Row, now time.Time) {
	seen := make(map[Key]bool, len(rows))
	for i, row := range rows {
		key := shippingKey(row)
		if seen[key] {
			result.Duplicates = append(result.Duplicates, Duplicate{
				Source: recorddomain.SourceShipping,
				Key:    key,
				Index:  i,
			})
			continue
		}
		seen[key] = true

		merged, exists := result.Records[key]
		if !exists {
			result.Orphans = append(result.Orphans, Orphan{
				Source: recorddomain.SourceShipping,
				Key:    key,
				Index:  i,
			})
			continue
		}

		rec, fieldErrs := recorddomain.DecodeShipping(row)
		if len(fieldErrs) > 0 {
			result.DecodeErrors = append(result.DecodeErrors, DecodeError{
				Source: recorddomain.SourceShipping,
				Key:    key,
				Errors: fieldErrs,
			})
		}

		rec.ID = it.genID.Generate()
		rec.LotID = merged.Lot.ID
		rec.ProductionDate = key.ProductionDate
		rec.CreatedAt = now
		merged.Shipping = &rec
	}
}

// qualityKey joins on production_date, falling back to inspection_date
// for feeds that only carry the inspection calendar.
func qualityKey(row recorddomain.Row) Key {
	date := row[recorddomain.FieldProductionDate]
	if date == "" {
		date = row[recorddomain.FieldInspectionDate]
	}
	return Key{
		LotCode:        row[recorddomain.FieldLotCode],
		ProductionDate: date,
	}
}

// shippingKey joins on production_date, falling back to ship_date.
func shippingKey(row recorddomain.Row) Key {
	date := row[recorddomain.FieldProductionDate]
	if date == "" {
		date = row[recorddomain.FieldShipDate]
	}
	return Key{
		LotCode:        row[recorddomain.FieldLotCode],
		ProductionDate: date,
	}
}
