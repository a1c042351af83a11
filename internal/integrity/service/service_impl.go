package service

import (
	"context"

	"github.com/steelworks/opshub/internal/clock"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  integritydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  integritydomain.Repository
}

func New(p Params) integritydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("integrity.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, filter integritydomain.ListFilter) ([]integritydomain.Flag, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Resolve(ctx context.Context, id string) (*integritydomain.Flag, error) {
	flagID, err := integritydomain.ParseID(id)
	if err != nil {
		return nil, integritydomain.ErrInvalidID
	}

	flag, err := s.repo.FindByID(ctx, s.db, flagID)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, integritydomain.ErrNotFound
	}
	if flag.IsResolved {
		return nil, integritydomain.ErrAlreadyResolved
	}

	now := s.clock.Now()
	updated, err := s.repo.Resolve(ctx, s.db, flagID, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, integritydomain.ErrAlreadyResolved
	}

	flag.IsResolved = true
	flag.ResolvedAt = &now
	s.log.Info("integrity flag resolved",
		zap.String("flag_id", flagID.String()),
		zap.String("lot_code", flag.LotCode),
		zap.String("flag_type", flag.FlagType),
	)
	return flag, nil
}

func (s *Service) Summary(ctx context.Context) (*integritydomain.SummaryResponse, error) {
	counts, err := s.repo.CountUnresolvedBySeverity(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return &integritydomain.SummaryResponse{
		Total:       total,
		BySeverity:  counts,
		GeneratedAt: s.clock.Now(),
	}, nil
}
