package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/config"
	"github.com/steelworks/opshub/internal/pipeline"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Cfg      config.Config
	Pipeline *pipeline.Service
}

// Scheduler drives the refresh cycle on a fixed interval. A run that
// overlaps the previous one is skipped, not queued.
type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	cfg      config.Config
	pipeline *pipeline.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Pipeline == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:    p.Clock,
		cfg:      p.Cfg,
		pipeline: p.Pipeline,
	}, nil
}

// RunOnce executes a single refresh under the configured timeout.
func (s *Scheduler) RunOnce(parent context.Context) error {
	timeout := s.cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := s.clock.Now()
	summary, err := s.pipeline.Refresh(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRefreshInProgress) {
			s.log.Warn("refresh still running, skipping scheduled cycle")
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn("scheduled refresh timed out",
				zap.Duration("timeout", timeout),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("scheduled refresh: %w", err)
	}

	s.log.Info("scheduled refresh completed",
		zap.String("run_id", summary.RunID),
		zap.Duration("duration", s.clock.Now().Sub(start)),
		zap.Int("lots", summary.Lots),
	)
	return nil
}

// RunForever loops until the context is canceled. The first run fires
// immediately so a restarted process serves fresh data without waiting
// a full interval.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
