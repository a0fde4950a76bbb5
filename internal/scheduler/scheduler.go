// Package scheduler drives the reminder pipeline on a fixed period. One
// process runs one scheduler; ticks never overlap, so a slow scan delays the
// next one instead of double-dispatching the same due set.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"remindly/config"
	"remindly/internal/service"
)

// Scheduler owns the cron runner behind reminder scans.
type Scheduler struct {
	cron     *cron.Cron
	reminder service.ReminderService
	interval time.Duration
	logger   *zap.Logger
}

// New builds the scheduler. Start must be called to begin ticking.
func New(cfg *config.SchedulerConfig, reminder service.ReminderService, logger *zap.Logger) (*Scheduler, error) {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}

	cronLog := &cronLogger{logger: logger}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))

	s := &Scheduler{
		cron:     c,
		reminder: reminder,
		interval: interval,
		logger:   logger,
	}

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), s.tick); err != nil {
		return nil, fmt.Errorf("register reminder scan: %w", err)
	}
	return s, nil
}

// Start begins ticking in the background.
func (s *Scheduler) Start() {
	s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval))
	s.cron.Start()
}

// Stop halts scheduling and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick() {
	// a tick gets one interval's worth of time before its store calls are
	// cancelled; the skipped scan picks the remainder up
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.reminder.Tick(ctx, now); err != nil {
		s.logger.Error("reminder tick failed", zap.Error(err))
	}
}

// cronLogger adapts zap to the cron logging interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
