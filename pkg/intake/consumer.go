// Package intake consumes node result reports from a Redis queue and feeds
// them into the orchestrator. Recruiting tools (ATS forms, assessment
// platforms) push reports here instead of calling the HTTP API directly.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// DefaultQueue is the Redis list result reports are pushed to.
const DefaultQueue = "hireflow:results"

// maxConflictRetries bounds re-delivery of a report that keeps losing the
// optimistic version check.
const maxConflictRetries = 3

// ResultReporter is the orchestrator surface the consumer needs.
type ResultReporter interface {
	ReportNodeResult(ctx context.Context, executionID string, result models.ExecutionResult, executionData map[string]any) (*models.CandidateWorkflow, error)
}

// Report is the wire format of one queued node result.
type Report struct {
	ExecutionID   string                 `json:"execution_id"`
	Result        models.ExecutionResult `json:"result"`
	ExecutionData map[string]any         `json:"execution_data,omitempty"`
}

// Consumer pops result reports from a Redis list and applies them.
type Consumer struct {
	queue    string
	reporter ResultReporter
	logger   *slog.Logger

	client redis.UniversalClient
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config connects the consumer to Redis.
type Config struct {
	Addr     string
	Password string
	DB       string
	Queue    string
}

// NewConsumer creates a consumer for the configured queue.
func NewConsumer(config Config, reporter ResultReporter, logger *slog.Logger) *Consumer {
	queue := config.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	return &Consumer{
		queue:    queue,
		reporter: reporter,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "intake",
			"queue", queue,
		),
		client: newClient(config),
	}
}

func newClient(config Config) redis.UniversalClient {
	addr := config.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if config.DB != "" {
		if parsed, err := strconv.Atoi(config.DB); err == nil {
			db = parsed
		}
	}

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       db,
	})
}

// Start connects to Redis and begins consuming in the background.
func (c *Consumer) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.client.Ping(pingCtx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Starting result intake consumer")

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Intake consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping intake consumer")

			return
		default:
			err := c.processMessage(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "Error processing result report", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context) error {
	result, err := c.client.BLPop(ctx, 1*time.Second, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop result report: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var report Report
	if err := json.Unmarshal([]byte(result[1]), &report); err != nil {
		c.logger.ErrorContext(ctx, "Discarding malformed result report", "error", err, "payload", result[1])

		return nil
	}

	return c.Apply(ctx, report)
}

// Apply feeds one report into the orchestrator, retrying a bounded number of
// times when the instance was advanced concurrently.
func (c *Consumer) Apply(ctx context.Context, report Report) error {
	if report.ExecutionID == "" || report.Result == "" {
		c.logger.WarnContext(ctx, "Discarding incomplete result report", "execution_id", report.ExecutionID)

		return nil
	}

	var lastErr error

	for attempt := range maxConflictRetries {
		_, err := c.reporter.ReportNodeResult(ctx, report.ExecutionID, report.Result, report.ExecutionData)
		if err == nil {
			c.logger.InfoContext(ctx, "Applied result report",
				"execution_id", report.ExecutionID,
				"result", report.Result,
			)

			return nil
		}

		if !persistence.IsStaleCandidateWorkflow(err) {
			return fmt.Errorf("failed to apply result report for execution %s: %w", report.ExecutionID, err)
		}

		lastErr = err

		c.logger.WarnContext(ctx, "Result report lost version check, retrying",
			"execution_id", report.ExecutionID,
			"attempt", attempt+1,
		)
	}

	return fmt.Errorf("result report for execution %s exhausted retries: %w", report.ExecutionID, lastErr)
}

// Stop halts consumption and closes the Redis connection.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping intake consumer")

	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		err := c.client.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
