package view

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/steelworks/opshub/internal/integrate"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned by queries before the first successful
// refresh cycle has published a view.
var ErrNoSnapshot = errors.New("no snapshot published yet")

// ErrLotNotFound is returned when a searched lot code matches nothing.
var ErrLotNotFound = errors.New("lot not found")

// Snapshot is the immutable result of one refresh cycle. Readers must
// treat it as read-only; the next cycle publishes a fresh one.
type Snapshot struct {
	RunID       string
	GeneratedAt time.Time
	Records     map[integrate.Key]*integrate.IntegratedRecord
	Order       []integrate.Key
	Flags       []*integritydomain.Flag
	Orphans     []integrate.Orphan
}

// Service holds the currently published snapshot. Publication is an
// atomic pointer swap, so queries either see the previous complete
// cycle or the new one, never a partial state.
type Service struct {
	log     *zap.Logger
	current atomic.Pointer[Snapshot]
}

func New(log *zap.Logger) *Service {
	return &Service{log: log.Named("view")}
}

// Publish swaps in the snapshot of a completed cycle.
func (s *Service) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
	s.log.Info("snapshot published",
		zap.String("run_id", snapshot.RunID),
		zap.Int("lots", len(snapshot.Order)),
		zap.Int("flags", len(snapshot.Flags)),
		zap.Time("generated_at", snapshot.GeneratedAt),
	)
}

// Current returns the published snapshot.
func (s *Service) Current() (*Snapshot, error) {
	snapshot := s.current.Load()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return snapshot, nil
}
