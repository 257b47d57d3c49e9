package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Deliverer hands a notification to the outside world.
type Deliverer interface {
	Deliver(ctx context.Context, p Push) error
}

// LogDeliverer writes every notification as a structured log line.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(ctx context.Context, p Push) error {
	d.Logger.InfoContext(ctx, "notification delivered",
		"user_id", p.UserID,
		"email", p.Email,
		"title", p.Title,
	)
	return nil
}

// HandlePush decodes a TaskPush payload and delivers it. Malformed payloads
// are not retried.
func HandlePush(d Deliverer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p Push
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}
		if p.UserID == 0 {
			return fmt.Errorf("payload without user: %w", asynq.SkipRetry)
		}

		if err := d.Deliver(ctx, p); err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
		return nil
	}
}

type ServerConfig struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
	Logger      *slog.Logger
}

// NewServer builds the worker server and its task mux.
func NewServer(cfg ServerConfig, d Deliverer) (*asynq.Server, *asynq.ServeMux) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(errorHandler(logger)),
		Logger:          &asynqLogger{logger: logger},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPush, HandlePush(d))

	return srv, mux
}

// Start runs the worker in the background and returns a stop function.
func Start(cfg ServerConfig, d Deliverer) (stop func(), err error) {
	srv, mux := NewServer(cfg, d)
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	return srv.Shutdown, nil
}

func errorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error("task failed",
			"task_type", task.Type(),
			"error", err,
			"retry_count", retried,
			"max_retry", maxRetry,
		)
	}
}

// asynqLogger adapts slog to asynq.Logger.
type asynqLogger struct {
	logger *slog.Logger
}

func (a *asynqLogger) Debug(args ...any) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLogger) Info(args ...any) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLogger) Warn(args ...any) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLogger) Error(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLogger) Fatal(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}
