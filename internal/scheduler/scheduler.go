// Package scheduler drives the periodic evaluation cycle.
package scheduler

import (
	"context"
	"time"

	"tradeguard/internal/logger"
)

// IntervalScheduler runs a task on a fixed interval until its context is
// canceled. Ticks that fire while the task is still running are dropped,
// keeping batch runs strictly sequential.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, name string, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{
		Name:     name,
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *IntervalScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("scheduler[%s]: task is nil, exit", s.Name)
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}

	logger.Infof("scheduler[%s]: started interval=%s run_immediately=%v",
		s.Name, s.Interval, s.RunImmediately)
	if s.RunImmediately {
		task()
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("scheduler[%s]: stopped", s.Name)
			return
		case <-ticker.C:
			task()
		}
	}
}
