package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/config"
	"github.com/steelworks/opshub/internal/conflict"
	"github.com/steelworks/opshub/internal/ingestion"
	"github.com/steelworks/opshub/internal/integrate"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	"github.com/steelworks/opshub/internal/normalize"
	obsmetrics "github.com/steelworks/opshub/internal/observability/metrics"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	sourcedomain "github.com/steelworks/opshub/internal/sourcehealth/domain"
	"github.com/steelworks/opshub/internal/validation"
	"github.com/steelworks/opshub/internal/view"
	"github.com/steelworks/opshub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRefreshInProgress is returned when a refresh is requested while
// another cycle is still running. Cycles never overlap.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Summary reports what one refresh cycle did.
type Summary struct {
	RunID               string                      `json:"run_id"`
	StartedAt           time.Time                   `json:"started_at"`
	FinishedAt          time.Time                   `json:"finished_at"`
	SourceRows          map[recorddomain.Source]int `json:"source_rows"`
	NormalizationErrors int                         `json:"normalization_errors"`
	DecodeErrors        int                         `json:"decode_errors"`
	Lots                int                         `json:"lots"`
	Duplicates          int                         `json:"duplicates"`
	Orphans             int                         `json:"orphans"`
	FlagsEmitted        int                         `json:"flags_emitted"`
	FlagsPersisted      int                         `json:"flags_persisted"`
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Cfg    config.Config
	Reader ingestion.Reader

	LotRepo  lotdomain.Repository
	FlagRepo integritydomain.Repository
	Health   sourcedomain.Service
	View     *view.Service

	ProdStore repository.Repository[recorddomain.ProductionRecord]
	QualStore repository.Repository[recorddomain.QualityRecord]
	ShipStore repository.Repository[recorddomain.ShippingRecord]
}

// Service runs the reconciliation cycle: read, normalize, integrate,
// resolve, validate, persist, publish.
type Service struct {
	mu sync.Mutex

	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	genID  *snowflake.Node
	cfg    config.Config
	reader ingestion.Reader

	lotRepo  lotdomain.Repository
	flagRepo integritydomain.Repository
	health   sourcedomain.Service
	view     *view.Service

	prodStore repository.Repository[recorddomain.ProductionRecord]
	qualStore repository.Repository[recorddomain.QualityRecord]
	shipStore repository.Repository[recorddomain.ShippingRecord]

	integrator *integrate.Integrator
	resolver   *conflict.Resolver
	validator  *validation.Validator
}

func New(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("pipeline"),
		clock:      p.Clock,
		genID:      p.GenID,
		cfg:        p.Cfg,
		reader:     p.Reader,
		lotRepo:    p.LotRepo,
		flagRepo:   p.FlagRepo,
		health:     p.Health,
		view:       p.View,
		prodStore:  p.ProdStore,
		qualStore:  p.QualStore,
		shipStore:  p.ShipStore,
		integrator: integrate.New(p.GenID, p.Clock),
		resolver:   conflict.New(p.Clock),
		validator:  validation.New(p.Clock),
	}
}

// Refresh runs one full cycle. A failed cycle leaves the previously
// published snapshot and persisted state untouched.
func (s *Service) Refresh(ctx context.Context) (*Summary, error) {
	if !s.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.mu.Unlock()

	start := s.clock.Now()
	summary := &Summary{
		RunID:      uuid.NewString(),
		StartedAt:  start,
		SourceRows: make(map[recorddomain.Source]int, len(recorddomain.Sources)),
	}
	log := s.log.With(zap.String("run_id", summary.RunID))
	log.Info("refresh started")

	raw, err := s.readSources(ctx, summary)
	if err != nil {
		s.finish(log, summary, err)
		return nil, err
	}

	normalized, rowErrs := s.normalizeSources(raw)
	summary.NormalizationErrors = len(rowErrs)
	for _, rowErr := range rowErrs {
		log.Warn("row degraded during normalization",
			zap.String("source", string(rowErr.Source)),
			zap.Int("row", rowErr.Index),
			zap.String("field", rowErr.Field),
			zap.String("reason", rowErr.Reason),
		)
	}

	res := s.integrator.Integrate(
		normalized[recorddomain.SourceProduction],
		normalized[recorddomain.SourceQuality],
		normalized[recorddomain.SourceShipping],
	)
	for _, decodeErr := range res.DecodeErrors {
		summary.DecodeErrors += len(decodeErr.Errors)
		for _, fieldErr := range decodeErr.Errors {
			log.Warn("field could not be decoded",
				zap.String("source", string(decodeErr.Source)),
				zap.String("lot_code", decodeErr.Key.LotCode),
				zap.String("production_date", decodeErr.Key.ProductionDate),
				zap.String("field", fieldErr.Field),
				zap.String("reason", fieldErr.Reason),
			)
		}
	}

	flags := s.resolver.Resolve(res)
	flags = append(flags, s.validator.DetectAllOutliers(res)...)
	for _, flag := range flags {
		flag.ID = s.genID.Generate()
	}
	for _, key := range res.Order {
		rec := res.Records[key]
		rec.Lot.Status = view.LotStatus(rec)
		rec.Lot.UpdatedAt = s.clock.Now()
	}

	summary.Lots = len(res.Order)
	summary.Duplicates = len(res.Duplicates)
	summary.Orphans = len(res.Orphans)
	summary.FlagsEmitted = len(flags)

	persisted, err := s.persist(ctx, res, flags)
	if err != nil {
		s.finish(log, summary, err)
		return nil, fmt.Errorf("pipeline: persist cycle: %w", err)
	}
	summary.FlagsPersisted = persisted

	for _, source := range recorddomain.Sources {
		if err := s.health.MarkHealthy(ctx, source, summary.SourceRows[source]); err != nil {
			log.Warn("source health update failed", zap.String("source", string(source)), zap.Error(err))
		}
	}
	if _, err := s.health.SweepStale(ctx, s.cfg.StaleThreshold); err != nil {
		log.Warn("stale sweep failed", zap.Error(err))
	}

	s.view.Publish(&view.Snapshot{
		RunID:       summary.RunID,
		GeneratedAt: s.clock.Now(),
		Records:     res.Records,
		Order:       res.Order,
		Flags:       flags,
		Orphans:     res.Orphans,
	})

	s.finish(log, summary, nil)
	s.record(summary, flags, rowErrs, res.DecodeErrors)
	return summary, nil
}

// readSources loads all three feeds. Any failure aborts the cycle
// before any state mutation, after marking the failing source.
func (s *Service) readSources(ctx context.Context, summary *Summary) (map[recorddomain.Source][]recorddomain.Row, error) {
	raw := make(map[recorddomain.Source][]recorddomain.Row, len(recorddomain.Sources))
	for _, source := range recorddomain.Sources {
		payload, err := s.reader.Read(ctx, source)
		if err != nil {
			if healthErr := s.health.MarkError(ctx, source, err); healthErr != nil {
				s.log.Warn("source health update failed", zap.String("source", string(source)), zap.Error(healthErr))
			}
			return nil, fmt.Errorf("pipeline: read %s source: %w", source, err)
		}
		raw[source] = payload.Rows
		summary.SourceRows[source] = len(payload.Rows)
	}
	return raw, nil
}

// normalizeSources cleans the three row sets concurrently; the sources
// are independent.
func (s *Service) normalizeSources(raw map[recorddomain.Source][]recorddomain.Row) (map[recorddomain.Source][]recorddomain.Row, []normalize.RowError) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	normalized := make(map[recorddomain.Source][]recorddomain.Row, len(raw))
	var rowErrs []normalize.RowError

	for _, source := range recorddomain.Sources {
		wg.Add(1)
		go func(source recorddomain.Source) {
			defer wg.Done()
			rows, errs := normalize.Normalize(raw[source], source)
			mu.Lock()
			normalized[source] = rows
			rowErrs = append(rowErrs, errs...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()
	return normalized, rowErrs
}

// persist replaces the lot and record tables with the new cycle and
// appends the cycle's flags, all in one transaction.
func (s *Service) persist(ctx context.Context, res *integrate.Result, flags []*integritydomain.Flag) (int, error) {
	persisted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lotRepo.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if err := s.prodStore.WithTrx(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.qualStore.WithTrx(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.shipStore.WithTrx(tx).DeleteAll(ctx); err != nil {
			return err
		}

		lots := make([]*lotdomain.Lot, 0, len(res.Order))
		var prodRecs []*recorddomain.ProductionRecord
		var qualRecs []*recorddomain.QualityRecord
		var shipRecs []*recorddomain.ShippingRecord
		for _, key := range res.Order {
			rec := res.Records[key]
			lots = append(lots, rec.Lot)
			if rec.Production != nil {
				prodRecs = append(prodRecs, rec.Production)
			}
			if rec.Quality != nil {
				qualRecs = append(qualRecs, rec.Quality)
			}
			if rec.Shipping != nil {
				shipRecs = append(shipRecs, rec.Shipping)
			}
		}

		if err := s.lotRepo.BatchInsert(ctx, tx, lots); err != nil {
			return err
		}
		if len(prodRecs) > 0 {
			if err := s.prodStore.WithTrx(tx).BatchCreate(ctx, prodRecs); err != nil {
				return err
			}
		}
		if len(qualRecs) > 0 {
			if err := s.qualStore.WithTrx(tx).BatchCreate(ctx, qualRecs); err != nil {
				return err
			}
		}
		if len(shipRecs) > 0 {
			if err := s.shipStore.WithTrx(tx).BatchCreate(ctx, shipRecs); err != nil {
				return err
			}
		}

		inserted, err := s.flagRepo.InsertCycle(ctx, tx, flags)
		if err != nil {
			return err
		}
		persisted = inserted
		return nil
	})
	if err != nil {
		return 0, err
	}
	return persisted, nil
}

func (s *Service) finish(log *zap.Logger, summary *Summary, err error) {
	summary.FinishedAt = s.clock.Now()
	duration := summary.FinishedAt.Sub(summary.StartedAt)
	if err != nil {
		obsmetrics.Pipeline().IncRefreshRun("error")
		obsmetrics.Pipeline().ObserveRefreshDuration(duration.Seconds())
		log.Error("refresh failed", zap.Error(err), zap.Duration("duration", duration))
		return
	}
	obsmetrics.Pipeline().IncRefreshRun("success")
	obsmetrics.Pipeline().ObserveRefreshDuration(duration.Seconds())
	log.Info("refresh completed",
		zap.Duration("duration", duration),
		zap.Int("lots", summary.Lots),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("orphans", summary.Orphans),
		zap.Int("flags_emitted", summary.FlagsEmitted),
		zap.Int("flags_persisted", summary.FlagsPersisted),
		zap.Int("normalization_errors", summary.NormalizationErrors),
		zap.Int("decode_errors", summary.DecodeErrors),
	)
}

func (s *Service) record(summary *Summary, flags []*integritydomain.Flag, rowErrs []normalize.RowError, decodeErrs []integrate.DecodeError) {
	metrics := obsmetrics.Pipeline()
	for source, rows := range summary.SourceRows {
		metrics.AddRowsNormalized(string(source), rows)
	}
	errsBySource := make(map[string]int)
	for _, rowErr := range rowErrs {
		errsBySource[string(rowErr.Source)]++
	}
	for _, decodeErr := range decodeErrs {
		errsBySource[string(decodeErr.Source)] += len(decodeErr.Errors)
	}
	for source, count := range errsBySource {
		metrics.AddNormalizationErrors(source, count)
	}
	bySeverity := make(map[string]int)
	for _, flag := range flags {
		bySeverity[string(flag.Severity)]++
	}
	for severity, count := range bySeverity {
		metrics.AddFlagsEmitted(severity, count)
	}
	metrics.SetLotsIntegrated(summary.Lots)
}
