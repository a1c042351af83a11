package conflict

import (
	"fmt"
	"time"

	"github.com/steelworks/opshub/internal/clock"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"github.com/steelworks/opshub/internal/integrate"
)

// Resolver inspects an integration result for structural anomalies:
// lots awaiting inspection, lots shipped without inspection, duplicate
// source rows and orphaned rows. It mutates lot lifecycle markers and
// emits flags; it never removes data.
type Resolver struct {
	clock clock.Clock
}

func New(clk clock.Clock) *Resolver {
	return &Resolver{clock: clk}
}

// Resolve walks the integrated set in first-seen order and returns the
// current cycle's findings. Emission is additive: deduplication against
// previously persisted flags is the storage layer's concern.
func (r *Resolver) Resolve(res *integrate.Result) []*integritydomain.Flag {
	now := r.clock.Now()
	var flags []*integritydomain.Flag

	for _, key := range res.Order {
		merged := res.Records[key]
		if merged.Quality != nil {
			continue
		}

		merged.Lot.PendingInspection = true
		lotID := merged.Lot.ID
		flags = append(flags, &integritydomain.Flag{
			LotID:          &lotID,
			LotCode:        key.LotCode,
			ProductionDate: key.ProductionDate,
			FlagType:       integritydomain.FlagPendingInspection,
			Severity:       integritydomain.SeverityWarning,
			Description:    fmt.Sprintf("lot %s (%s) has not been inspected yet", key.LotCode, key.ProductionDate),
			DetectedAt:     now,
		})

		if merged.Shipping != nil {
			merged.Lot.HasIntegrityIssue = true
			flags = append(flags, &integritydomain.Flag{
				LotID:          &lotID,
				LotCode:        key.LotCode,
				ProductionDate: key.ProductionDate,
				FlagType:       integritydomain.FlagMissingQuality,
				Severity:       integritydomain.SeverityError,
				Description:    fmt.Sprintf("lot %s (%s) shipped on %s without a quality inspection", key.LotCode, key.ProductionDate, merged.Shipping.ShipDate),
				DetectedAt:     now,
			})
		}
	}

	flags = append(flags, r.duplicateFlags(res, now)...)
	flags = append(flags, r.orphanFlags(res, now)...)
	return flags
}

func (r *Resolver) duplicateFlags(res *integrate.Result, now time.Time) []*integritydomain.Flag {
	flags := make([]*integritydomain.Flag, 0, len(res.Duplicates))
	for _, dup := range res.Duplicates {
		flag := &integritydomain.Flag{
			LotCode:        dup.Key.LotCode,
			ProductionDate: dup.Key.ProductionDate,
			FlagType:       integritydomain.FlagDuplicateRecord,
			Severity:       integritydomain.SeverityError,
			Description:    fmt.Sprintf("duplicate %s row for lot %s (%s) at input index %d; first row kept", dup.Source, dup.Key.LotCode, dup.Key.ProductionDate, dup.Index),
			DetectedAt:     now,
		}
		if merged, ok := res.Records[dup.Key]; ok {
			lotID := merged.Lot.ID
			flag.LotID = &lotID
			merged.Lot.HasIntegrityIssue = true
		}
		flags = append(flags, flag)
	}
	return flags
}

func (r *Resolver) orphanFlags(res *integrate.Result, now time.Time) []*integritydomain.Flag {
	flags := make([]*integritydomain.Flag, 0, len(res.Orphans))
	for _, orphan := range res.Orphans {
		flags = append(flags, &integritydomain.Flag{
			LotCode:        orphan.Key.LotCode,
			ProductionDate: orphan.Key.ProductionDate,
			FlagType:       integritydomain.FlagOrphanedRecord,
			Severity:       integritydomain.SeverityError,
			Description:    fmt.Sprintf("orphaned %s row for key (%s, %s) with no matching production lot", orphan.Source, orphan.Key.LotCode, orphan.Key.ProductionDate),
			DetectedAt:     now,
		})
	}
	return flags
}
