// Package sweeper runs the proposal sweep on a fixed interval.
package sweeper

import (
	"context"
	"time"

	"github.com/saxenaaman628/badenya/internal/proposals"
	"go.uber.org/zap"
)

type Sweepable interface {
	Sweep(ctx context.Context) (proposals.SweepReport, error)
}

type Sweeper struct {
	target   Sweepable
	interval time.Duration
	log      *zap.Logger
}

func New(target Sweepable, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, log: log.Named("sweeper")}
}

// Run sweeps once per interval until ctx is cancelled. A non-positive
// interval disables the sweeper; reads still finalize lazily.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	rep, err := s.target.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
		return
	}
	if rep.Finalized > 0 || rep.Reminded > 0 || rep.Failed > 0 {
		s.log.Info("sweep",
			zap.Int("scanned", rep.Scanned),
			zap.Int("finalized", rep.Finalized),
			zap.Int("reminded", rep.Reminded),
			zap.Int("failed", rep.Failed),
		)
	}
}
