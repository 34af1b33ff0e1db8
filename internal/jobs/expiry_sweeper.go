// Package jobs holds scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"intervuex/internal/models"
	"intervuex/internal/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ActiveSessionLister interface {
	ListActive(ctx context.Context) ([]models.InterviewSession, error)
}

type TimeoutSweeper interface {
	SweepExpired(ctx context.Context, active []models.InterviewSession) (int, error)
}

// SweeperConfig controls the expiry sweeper
type SweeperConfig struct {
	Enabled  bool
	Schedule string // cron expression, e.g. "@every 1m"
	// RunTimeout bounds one sweep
	RunTimeout time.Duration
}

// ExpirySweeper periodically completes active sessions whose time budget is used up, so
// abandoned interviews get scored without anyone reading them.
type ExpirySweeper struct {
	sessions ActiveSessionLister
	sweeper  TimeoutSweeper
	config   SweeperConfig
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewExpirySweeper(sessions ActiveSessionLister, sweeper TimeoutSweeper, config SweeperConfig, logger *zap.Logger) *ExpirySweeper {
	if config.RunTimeout <= 0 {
		config.RunTimeout = time.Minute
	}
	return &ExpirySweeper{
		sessions: sessions,
		sweeper:  sweeper,
		config:   config,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   utils.OrNop(logger),
	}
}

// Start schedules the sweep. It is a no-op when disabled.
func (s *ExpirySweeper) Start() error {
	if !s.config.Enabled {
		s.logger.Info("expiry sweeper is disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweeper: %w", err)
	}

	s.cron.Start()
	s.logger.Info("expiry sweeper started", zap.String("schedule", s.config.Schedule))
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce performs a single sweep and returns how many sessions it completed.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int, error) {
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active sessions: %w", err)
	}
	if len(active) == 0 {
		return 0, nil
	}

	completed, err := s.sweeper.SweepExpired(ctx, active)
	if completed > 0 {
		s.logger.Info("expired sessions completed",
			zap.Int("completed", completed),
			zap.Int("active", len(active)))
	}
	return completed, err
}
