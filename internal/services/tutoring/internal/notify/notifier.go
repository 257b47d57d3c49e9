// Package notify queues push notifications through asynq and delivers them
// from an embedded worker. Notifications are best effort: a failed enqueue is
// logged and never fails the operation that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPush = "notification:push"

type Recipient struct {
	UserID int64
	Email  string
}

type Notification struct {
	Title string
	Body  string
}

// Push is the payload of a TaskPush task.
type Push struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Notifier struct {
	client enqueuer
}

// NewNotifier returns a notifier backed by client. A nil client gives a
// notifier that drops everything.
func NewNotifier(client enqueuer) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil
}

// NotifyAll enqueues one task per recipient and returns how many were queued.
func (n *Notifier) NotifyAll(ctx context.Context, recipients []Recipient, msg Notification) int {
	if !n.Enabled() {
		return 0
	}

	queued := 0
	for _, r := range recipients {
		if err := n.enqueue(ctx, r, msg); err != nil {
			slog.Warn("failed to enqueue notification",
				"error", err,
				"user_id", r.UserID,
				"title", msg.Title,
			)
			continue
		}
		queued++
	}

	return queued
}

func (n *Notifier) enqueue(ctx context.Context, r Recipient, msg Notification) error {
	payload, err := json.Marshal(Push{
		UserID: r.UserID,
		Email:  r.Email,
		Title:  msg.Title,
		Body:   msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(TaskPush, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)

	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	return nil
}
