package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/invkeeper/internal/logging"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically prunes expired sessions from a Sweepable registry.
type Sweeper struct {
	cron   *cron.Cron
	target Sweepable
	logger logging.Logger
}

// NewSweeper schedules target.Sweep with a standard cron spec or a
// descriptor such as "@every 1h".
func NewSweeper(schedule string, target Sweepable, logger logging.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:   cron.New(),
		target: target,
		logger: logger.With("module", "session_sweeper"),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	if n := s.target.Sweep(); n > 0 {
		s.logger.Info(context.Background(), "Expired sessions removed", "count", n)
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep or for ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
