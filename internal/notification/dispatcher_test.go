package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/platform/logger"
	id "veris/pkg/domain"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func TestDispatcherWorker_DeliversQueuedEvents(t *testing.T) {
	log := logger.New("error")
	dispatcher := NewDispatcher(8, log)
	publisher := &capturingPublisher{}
	worker := NewWorker(dispatcher, publisher, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	appID := id.NewApplicationID()
	userID := id.NewUserID()
	dispatcher.Emit(ctx, "kyc-approved", appID, userID)
	dispatcher.Emit(ctx, "kyc-submitted", appID, userID)

	require.Eventually(t, func() bool {
		return len(publisher.all()) == 2
	}, time.Second, 10*time.Millisecond)

	events := publisher.all()
	assert.Equal(t, "kyc-approved", events[0].Name)
	assert.Equal(t, appID, events[0].ApplicationID)
	assert.False(t, events[0].OccurredAt.IsZero())

	cancel()
	<-done
}

func TestDispatcher_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	log := logger.New("error")
	dispatcher := NewDispatcher(1, log)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			dispatcher.Emit(ctx, "documents-accepted", id.NewApplicationID(), id.NewUserID())
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}
