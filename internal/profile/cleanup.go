// internal/profile/cleanup.go

package profile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper prunes mood-history entries past the retention horizon. The
// log is append-only for callers; only the sweeper deletes from it.
type Sweeper struct {
	store     Store
	retention time.Duration
}

func NewSweeper(store Store, retention time.Duration) *Sweeper {
	return &Sweeper{store: store, retention: retention}
}

// Start runs the sweeper until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	pruned, err := s.store.PruneMoodHistory(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("mood history sweep failed")
		return
	}
	if pruned > 0 {
		logrus.WithField("pruned", pruned).Info("mood history swept")
	}
}
