// Package job provides background job processing using Asynq.
//
// Committed TestTable mutations are enqueued as tasks by Notify and a worker
// forwards them to the event publisher, so a slow or unavailable broker never
// holds up an HTTP request.
package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/testtable-service/internal/config"
	"github.com/deppfellow/testtable-service/internal/events"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

// enqueuer is the part of *asynq.Client the service uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	client    enqueuer
	server    *asynq.Server
	publisher events.Publisher
	logger    *zerolog.Logger
}

// NewJobService creates a JobService configured to use Redis from cfg.
// Delivered changes are handed to publisher.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, publisher events.Publisher) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	// Concurrency is split across queues by weight.
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqLogger{logger: logger},
		},
	)

	return &JobService{
		client:    client,
		server:    server,
		publisher: publisher,
		logger:    logger,
	}
}

// Start registers task handlers and starts the worker server in the
// background.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTestTableChanged, j.handleTestTableChangedTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Notify enqueues change for delivery.
func (j *JobService) Notify(ctx context.Context, change testtable.Change) error {
	task, err := NewTestTableChangedTask(change)
	if err != nil {
		return fmt.Errorf("failed to build test table change task: %w", err)
	}

	info, err := j.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue test table change: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("type", string(change.Kind)).
		Str("id", change.ID.String()).
		Msg("Enqueued test table change")

	return nil
}

// Stop waits for in-flight tasks, then closes the Redis client and the
// publisher.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	if j.server != nil {
		j.server.Shutdown()
	}
	if err := j.client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("Failed to close job client")
	}
	if err := j.publisher.Close(); err != nil {
		j.logger.Error().Err(err).Msg("Failed to close event publisher")
	}
}

// asynqLogger routes Asynq's own logs through zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
