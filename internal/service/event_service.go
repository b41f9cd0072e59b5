package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/pkg/events"
	"github.com/noah-isme/internship-portal-api/pkg/jobs"
)

// Domain event types.
const (
	EventFinalResultReleased = "final_result.released"
	eventApplicationPrefix   = "application."
	publishTimeout           = 5 * time.Second
)

type eventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// EventServiceConfig tunes the background publishing queue.
type EventServiceConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// EventService hands domain events to the broker from a background queue so
// request paths never wait on Kafka.
type EventService struct {
	publisher eventPublisher
	queue     *jobs.Queue
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewEventService constructs the service. A nil publisher disables publishing.
func NewEventService(publisher eventPublisher, cfg EventServiceConfig, logger *zap.Logger, metrics *MetricsService) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EventService{publisher: publisher, logger: logger, metrics: metrics, now: time.Now}
	if publisher != nil {
		s.queue = jobs.NewQueue("domain-events", s.handle, jobs.QueueConfig{
			Workers:      cfg.Workers,
			MaxRetries:   cfg.Retries,
			RetryDelay:   cfg.RetryDelay,
			DrainTimeout: publishTimeout,
			OnExhausted:  s.abandoned,
			Logger:       logger,
		})
	}
	return s
}

// Start launches the publishing workers.
func (s *EventService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains workers.
func (s *EventService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// Publish enqueues an event without blocking. Failures are logged only.
func (s *EventService) Publish(eventType, key, actorID string, payload interface{}) {
	if s == nil || s.queue == nil {
		return
	}
	evt := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: evt.ID, Type: evt.Type, Payload: evt}); err != nil {
		s.metrics.RecordEvent(eventType, "dropped")
		s.logger.Warn("domain event dropped", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

// PublishApplicationEvent publishes "application.<event>".
func (s *EventService) PublishApplicationEvent(event, applicationID, actorID string, payload interface{}) {
	s.Publish(eventApplicationPrefix+event, applicationID, actorID, payload)
}

func (s *EventService) handle(ctx context.Context, job jobs.Job) error {
	evt, ok := job.Payload.(events.Event)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected event payload %T", job.Payload))
	}
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, evt); err != nil {
		s.metrics.RecordEvent(evt.Type, "failed")
		return err
	}
	s.metrics.RecordEvent(evt.Type, "published")
	return nil
}

func (s *EventService) abandoned(job jobs.Job, err error) {
	s.metrics.RecordEvent(job.Type, "abandoned")
	s.logger.Error("domain event abandoned",
		zap.String("event_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}
