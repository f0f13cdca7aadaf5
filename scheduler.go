package spacetraveling

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
)

// Scheduler periodically regenerates every stale page, so pages nobody
// requests still follow the revalidation interval.
type Scheduler struct {
	cron     *cron.Cron
	cache    *PageCache
	logger   echo.Logger
	interval time.Duration
}

// NewScheduler creates a Scheduler sweeping cache every interval.
func NewScheduler(cache *PageCache, interval time.Duration, logger echo.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval %s", interval)
	}
	s := &Scheduler{cron: cron.New(), cache: cache, logger: logger, interval: interval}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("revalidation sweep scheduled every %s", s.interval)
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep regenerates the pages that are currently stale and returns how
// many were regenerated.
func (s *Scheduler) Sweep(ctx context.Context) int {
	paths, err := s.cache.Stale()
	if err != nil {
		s.logger.Errorf("sweep: list stale pages: %v", err)
		return 0
	}
	done := 0
	for _, path := range paths {
		if _, err := s.cache.Refresh(ctx, path); err != nil {
			s.logger.Warnf("sweep: %s: %v", path, err)
			continue
		}
		done++
	}
	if len(paths) > 0 {
		s.logger.Infof("sweep: regenerated %d of %d stale pages", done, len(paths))
	}
	return done
}
