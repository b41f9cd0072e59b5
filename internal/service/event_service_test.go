package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/internship-portal-api/pkg/events"
)

type publisherStub struct {
	mu       sync.Mutex
	events   []events.Event
	failures int
}

func (p *publisherStub) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *publisherStub) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func TestEventServicePublishesThroughQueue(t *testing.T) {
	pub := &publisherStub{failures: 1}
	svc := NewEventService(pub, EventServiceConfig{Workers: 1, Retries: 2, RetryDelay: 10 * time.Millisecond}, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.PublishApplicationEvent("hired", "app-1", "comp-1", map[string]string{"status": "approved"})

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	evt := pub.published()[0]
	assert.Equal(t, "application.hired", evt.Type)
	assert.Equal(t, "app-1", evt.Key)
	assert.Equal(t, "comp-1", evt.ActorID)
	assert.NotEmpty(t, evt.ID)
}

func TestEventServiceDisabledWithoutPublisher(t *testing.T) {
	svc := NewEventService(nil, EventServiceConfig{}, nil, nil)
	svc.Start(context.Background())
	assert.NotPanics(t, func() {
		svc.Publish(EventFinalResultReleased, "app-1", "sup-1", nil)
	})
	svc.Stop()

	var nilSvc *EventService
	assert.NotPanics(t, func() { nilSvc.PublishApplicationEvent("submitted", "app-1", "stu-1", nil) })
}

func TestEventServiceDropsWhenNotStarted(t *testing.T) {
	pub := &publisherStub{}
	svc := NewEventService(pub, EventServiceConfig{Workers: 1}, nil, NewMetricsService())
	svc.Publish(EventFinalResultReleased, "app-1", "sup-1", nil)
	assert.Empty(t, pub.published())
}

func TestEventServiceAbandonsAfterRetries(t *testing.T) {
	pub := &publisherStub{failures: 10}
	core, logs := observer.New(zap.ErrorLevel)
	svc := NewEventService(pub, EventServiceConfig{Workers: 1, Retries: 1, RetryDelay: time.Millisecond}, zap.New(core), NewMetricsService())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Publish(EventFinalResultReleased, "app-1", "sup-1", nil)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("domain event abandoned").Len() == 1
	}, time.Second, 5*time.Millisecond)
	entry := logs.FilterMessage("domain event abandoned").All()[0]
	assert.Equal(t, EventFinalResultReleased, entry.ContextMap()["type"])
	assert.Empty(t, pub.published())
}
