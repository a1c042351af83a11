package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steelworks/opshub/internal/clock"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	sourcedomain "github.com/steelworks/opshub/internal/sourcehealth/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  sourcedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  sourcedomain.Repository
}

func New(p Params) sourcedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("sourcehealth.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) MarkHealthy(ctx context.Context, source recorddomain.Source, recordCount int) error {
	now := s.clock.Now()
	entry, err := s.load(ctx, source)
	if err != nil {
		return err
	}

	entry.LastRefreshAt = &now
	entry.LastSuccessAt = &now
	entry.RecordCount = recordCount
	entry.Status = sourcedomain.StatusHealthy
	entry.ErrorMessage = ""
	return s.repo.Upsert(ctx, s.db, entry)
}

func (s *Service) MarkError(ctx context.Context, source recorddomain.Source, cause error) error {
	now := s.clock.Now()
	entry, err := s.load(ctx, source)
	if err != nil {
		return err
	}

	entry.LastRefreshAt = &now
	entry.Status = sourcedomain.StatusError
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	s.log.Warn("source refresh failed",
		zap.String("source", string(source)),
		zap.Error(cause),
	)
	return s.repo.Upsert(ctx, s.db, entry)
}

func (s *Service) SweepStale(ctx context.Context, threshold time.Duration) (int, error) {
	if threshold <= 0 {
		return 0, nil
	}

	sources, err := s.repo.List(ctx, s.db)
	if err != nil {
		return 0, err
	}

	cutoff := s.clock.Now().Add(-threshold)
	swept := 0
	for i := range sources {
		entry := sources[i]
		if entry.Status != sourcedomain.StatusHealthy {
			continue
		}
		if entry.LastSuccessAt != nil && entry.LastSuccessAt.After(cutoff) {
			continue
		}
		entry.Status = sourcedomain.StatusStale
		if err := s.repo.Upsert(ctx, s.db, &entry); err != nil {
			return swept, err
		}
		swept++
	}
	if swept > 0 {
		s.log.Info("stale sources swept", zap.Int("count", swept))
	}
	return swept, nil
}

func (s *Service) List(ctx context.Context) ([]sourcedomain.DataSource, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) load(ctx context.Context, source recorddomain.Source) (*sourcedomain.DataSource, error) {
	entry, err := s.repo.FindByName(ctx, s.db, string(source))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &sourcedomain.DataSource{
			ID:          s.genID.Generate(),
			SourceName:  string(source),
			DisplayName: source.DisplayName(),
		}
	}
	return entry, nil
}
