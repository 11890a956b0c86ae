package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/repositorytest"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// testMetrics is shared: prometheus panics on duplicate registration.
var testMetrics = metrics.NewMetrics("clinic_test", "worker")

type fakeBroker struct {
	mu        sync.Mutex
	published []messaging.Message
	failTypes map[string]bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{failTypes: make(map[string]bool)}
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := message.(messaging.Message)
	if b.failTypes[msg.Type] {
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, msg)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func newTestProcessor(repo *repositorytest.OutboxRepo, broker *fakeBroker, retention time.Duration) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		Channel:      "clinic-events",
		BatchSize:    10,
		PollInterval: time.Second,
		RetentionAge: retention,
	}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}), testMetrics)
}

func record(t *testing.T, repo *repositorytest.OutboxRepo, eventType string) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"k": "v"})
	require.NoError(t, err)
	event := &model.OutboxEvent{EventType: eventType, Payload: payload}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestProcessEvents(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := newFakeBroker()
	p := newTestProcessor(repo, broker, 0)

	record(t, repo, model.EventAppointmentCreated)
	record(t, repo, model.EventPatientCreated)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Len(t, broker.published, 2)
	pending, err := repo.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	for _, event := range repo.Events {
		assert.Equal(t, model.OutboxStatusProcessed, event.Status)
	}
}

func TestProcessEventsPublishFailure(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := newFakeBroker()
	broker.failTypes[model.EventAccountCreated] = true
	p := newTestProcessor(repo, broker, 0)

	failing := record(t, repo, model.EventAccountCreated)
	record(t, repo, model.EventPatientCreated)

	require.NoError(t, p.processEvents(context.Background()))

	// the failing event is marked, the rest still go through
	assert.Len(t, broker.published, 1)
	for _, event := range repo.Events {
		if event.ID == failing.ID {
			assert.Equal(t, model.OutboxStatusFailed, event.Status)
			assert.Equal(t, 1, event.RetryCount)
			require.NotNil(t, event.ErrorMessage)
			assert.Equal(t, "broker unavailable", *event.ErrorMessage)
		} else {
			assert.Equal(t, model.OutboxStatusProcessed, event.Status)
		}
	}
}

func TestProcessEventsPurgesOldProcessed(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	broker := newFakeBroker()
	p := newTestProcessor(repo, broker, time.Nanosecond)

	record(t, repo, model.EventPatientCreated)

	require.NoError(t, p.processEvents(context.Background()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, repo.Events)
}
