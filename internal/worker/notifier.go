package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/internal/notifications"
	"github.com/lobbypass/backend/pkg/queue"
)

// Sender delivers a notification to the host. Actual transport (email, SMS,
// push) is delegated to an external provider behind this interface.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) error
}

// LogSender is the default Sender: it only logs the notification. Deployments
// with a delivery provider plug in their own implementation.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the notification.
func (s LogSender) Send(_ context.Context, n *models.Notification) error {
	s.Logger.Info("host notification",
		zap.String("host_id", n.HostID.String()),
		zap.String("visitor_id", n.VisitorID.String()),
		zap.String("kind", n.Kind),
		zap.String("message", n.Message),
	)
	return nil
}

// NotificationProcessor consumes host notification jobs: record the
// notification, hand it to the Sender, mark it dispatched.
type NotificationProcessor struct {
	repo   *notifications.Repository
	sender Sender
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a host notification processor.
func NewNotificationProcessor(repo *notifications.Repository, sender Sender, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, sender: sender, queue: q, logger: logger}
}

// Process executes one host notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeHostNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.HostNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n := &models.Notification{
		VisitorID: payload.VisitorID,
		HostID:    payload.HostID,
		Kind:      payload.Kind,
		Message:   payload.Message,
	}
	if err := p.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	if err := p.sender.Send(ctx, n); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if err := p.repo.MarkDispatched(ctx, n.ID); err != nil {
		p.logger.Error("mark dispatched failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
		return fmt.Errorf("mark dispatched: %w", err)
	}

	p.logger.Info("host notification dispatched",
		zap.String("notification_id", n.ID.String()), zap.String("host_id", n.HostID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
