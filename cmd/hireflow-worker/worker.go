// Package main provides the HireFlow background worker: the result intake
// consumer plus the stale execution reminder sweep.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireflow/hireflow/pkg/eventbus"
	"github.com/hireflow/hireflow/pkg/intake"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/reminders"
	"github.com/hireflow/hireflow/pkg/workflow"
)

// WorkerConfig carries the intake and reminder settings from the CLI.
type WorkerConfig struct {
	RedisAddr        string
	RedisPassword    string
	IntakeQueue      string
	ReminderSchedule string
	ReminderMaxAge   time.Duration
}

// Worker bundles the long-running background components.
type Worker struct {
	consumer *intake.Consumer
	sweeper  *reminders.Sweeper
	logger   *slog.Logger
}

// NewWorker wires the orchestrator, the intake consumer and the sweeper.
func NewWorker(config WorkerConfig, p persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *Worker {
	orchestrator := workflow.NewOrchestrator(p, eventBus, logger)

	consumer := intake.NewConsumer(intake.Config{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		Queue:    config.IntakeQueue,
	}, orchestrator, logger)

	sweeper := reminders.NewSweeper(reminders.Config{
		Schedule: config.ReminderSchedule,
		MaxAge:   config.ReminderMaxAge,
	}, p, eventBus, logger)

	return &Worker{
		consumer: consumer,
		sweeper:  sweeper,
		logger:   logger,
	}
}

// Run starts both components and blocks until the context is cancelled or a
// termination signal arrives.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := w.consumer.Start(ctx); err != nil {
		return err
	}

	if err := w.sweeper.Start(ctx); err != nil {
		stopErr := w.consumer.Stop(ctx)
		if stopErr != nil {
			w.logger.ErrorContext(ctx, "Failed to stop intake consumer", "error", stopErr)
		}

		return err
	}

	w.logger.InfoContext(ctx, "Worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		w.logger.InfoContext(ctx, "Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := w.consumer.Stop(shutdownCtx); err != nil {
		w.logger.ErrorContext(shutdownCtx, "Failed to stop intake consumer", "error", err)
	}

	if err := w.sweeper.Stop(shutdownCtx); err != nil {
		w.logger.ErrorContext(shutdownCtx, "Failed to stop reminder sweeper", "error", err)
	}

	w.logger.InfoContext(shutdownCtx, "Worker stopped")

	return nil
}
