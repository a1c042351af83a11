package domain

import (
	"context"
	"time"

	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

type Service interface {
	MarkHealthy(ctx context.Context, source recorddomain.Source, recordCount int) error
	MarkError(ctx context.Context, source recorddomain.Source, cause error) error
	// SweepStale downgrades healthy sources whose last successful
	// refresh is older than the threshold.
	SweepStale(ctx context.Context, threshold time.Duration) (int, error)
	List(ctx context.Context) ([]DataSource, error)
}
