package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/pkg/jobs"
	"github.com/thethakurshivam/grs-sub003/pkg/middleware/requestid"
)

type eventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// NotificationService fans committed workflow events out to external consumers.
// Delivery is best effort and never affects the ledger.
type NotificationService struct {
	publisher eventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	enabled   bool
	timeout   time.Duration
}

// NewNotificationService constructs the notifier.
func NewNotificationService(publisher eventPublisher, metrics *MetricsService, logger *zap.Logger, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{publisher: publisher, metrics: metrics, logger: logger, enabled: enabled, timeout: 2 * time.Second}
}

// Notify publishes events in order. Failures are logged and counted.
func (s *NotificationService) Notify(ctx context.Context, events ...models.Event) {
	if s == nil || !s.enabled || s.publisher == nil {
		return
	}
	correlationID := requestid.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	for _, event := range events {
		if event.CorrelationID == "" {
			event.CorrelationID = correlationID
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.metrics.RecordEvent(string(event.Type), false)
			s.logger.Warn("event publish failed",
				zap.String("event_type", string(event.Type)),
				zap.String("resource_id", event.ResourceID),
				zap.Error(err))
			continue
		}
		s.metrics.RecordEvent(string(event.Type), true)
	}
}

// NewEventQueue builds the worker queue that delivers events through publisher, retrying failures.
func NewEventQueue(publisher eventPublisher, cfg jobs.QueueConfig) *jobs.Queue[models.Event] {
	return jobs.NewQueue("events", func(ctx context.Context, job jobs.Job[models.Event]) error {
		return publisher.Publish(ctx, job.Payload)
	}, cfg)
}

// QueuedPublisher hands events to a background queue so request handlers never wait on the broker.
type QueuedPublisher struct {
	queue *jobs.Queue[models.Event]
}

// NewQueuedPublisher wraps a started event queue.
func NewQueuedPublisher(queue *jobs.Queue[models.Event]) *QueuedPublisher {
	return &QueuedPublisher{queue: queue}
}

// Publish enqueues the event; only a closed or full queue is reported.
func (p *QueuedPublisher) Publish(_ context.Context, event models.Event) error {
	return p.queue.Enqueue(jobs.Job[models.Event]{ID: event.ID, Kind: string(event.Type), Payload: event})
}
