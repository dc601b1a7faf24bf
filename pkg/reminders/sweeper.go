// Package reminders periodically flags node executions that have been sitting
// live for too long. The sweep only publishes execution.stale events for
// downstream notification systems; it never moves a candidate or cancels
// anything.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/hireflow/hireflow/pkg/eventbus"
	"github.com/hireflow/hireflow/pkg/events"
	"github.com/hireflow/hireflow/pkg/persistence"
)

const (
	// DefaultSchedule runs the sweep hourly.
	DefaultSchedule = "0 * * * *"

	// DefaultMaxAge is how long an execution may stay live before it is
	// considered stale.
	DefaultMaxAge = 72 * time.Hour
)

// Sweeper owns the cron schedule and the stale-execution scan.
type Sweeper struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	schedule    string
	maxAge      time.Duration
	cron        *cron.Cron
}

// Config tunes the sweep cadence and staleness threshold. Zero values fall
// back to the defaults.
type Config struct {
	Schedule string
	MaxAge   time.Duration
}

// NewSweeper creates a reminder sweeper.
func NewSweeper(config Config, p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Sweeper {
	schedule := config.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Sweeper{
		persistence: p,
		publisher:   publisher,
		schedule:    schedule,
		maxAge:      maxAge,
		logger:      logger.With("module", "reminders"),
	}
}

// Start registers the cron entry and begins sweeping.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Reminder sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	s.logger.InfoContext(ctx, "Starting reminder sweeper",
		"schedule", s.schedule,
		"max_age", s.maxAge,
	)
	s.cron.Start()

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Reminder sweeper stopped")

	return nil
}

// Sweep publishes one execution.stale event per live execution older than the
// staleness threshold.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.maxAge)

	stale, err := s.persistence.NodeExecutionRepository().ListStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale executions: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "Found stale executions", "count", len(stale))

	for _, execution := range stale {
		instance, err := s.persistence.CandidateWorkflowRepository().GetByID(ctx, execution.CandidateWorkflowID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load candidate workflow for stale execution",
				"execution_id", execution.ID,
				"error", err,
			)

			continue
		}

		event := events.ExecutionStale{
			BaseEvent: events.BaseEvent{
				ID:         uuid.NewString(),
				Type:       events.ExecutionStaleEvent,
				Timestamp:  time.Now().UTC(),
				WorkflowID: instance.WorkflowID,
			},
			CandidateWorkflowID: execution.CandidateWorkflowID,
			ExecutionID:         execution.ID,
			NodeID:              execution.NodeID,
			Age:                 time.Since(*execution.StartedAt),
		}

		if err := s.publisher.Publish(ctx, execution.CandidateWorkflowID, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish stale execution event",
				"execution_id", execution.ID,
				"error", err,
			)
		}
	}

	return nil
}
