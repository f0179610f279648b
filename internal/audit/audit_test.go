package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryStoreAppendOrder(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{ProcedureID: "p1", Type: EventStepTransition, ToStep: "biometric_validation"}))
	require.NoError(t, store.Append(ctx, Event{ProcedureID: "p1", Type: EventStepTransition, ToStep: "document_analysis"}))
	require.NoError(t, store.Append(ctx, Event{ProcedureID: "p2", Type: EventStateChange}))

	events, err := store.ListByProcedure(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "biometric_validation", events[0].ToStep)
	assert.Equal(t, "document_analysis", events[1].ToStep)

	other, err := store.ListByProcedure(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestInMemoryStoreListReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{ProcedureID: "p1", Type: EventProcedureError, Note: "boom"}))

	events, _ := store.ListByProcedure(ctx, "p1")
	events[0].Note = "mutated"

	again, _ := store.ListByProcedure(ctx, "p1")
	assert.Equal(t, "boom", again[0].Note)
}

func TestRecorderDrainsToStore(t *testing.T) {
	store := NewInMemoryStore()
	recorder := NewRecorder(store, 8, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- recorder.Run(ctx) }()

	recorder.Emit(ctx, Event{ProcedureID: "p1", Type: EventStepTransition, FromStep: "start", ToStep: "biometric_validation"})
	recorder.Emit(ctx, Event{ProcedureID: "p1", Type: EventProcedureError, Note: "agent failed"})

	assert.Eventually(t, func() bool {
		events, err := recorder.List(ctx, "p1")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRecorderStampsTimestamp(t *testing.T) {
	recorder := NewRecorder(NewInMemoryStore(), 1, testLogger())

	recorder.Emit(context.Background(), Event{ProcedureID: "p1", Type: EventStateChange})

	event := <-recorder.inbox
	assert.False(t, event.Timestamp.IsZero())
}

func TestRecorderKeepsExplicitTimestamp(t *testing.T) {
	recorder := NewRecorder(NewInMemoryStore(), 1, testLogger())
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	recorder.Emit(context.Background(), Event{ProcedureID: "p1", Type: EventStateChange, Timestamp: stamp})

	event := <-recorder.inbox
	assert.Equal(t, stamp, event.Timestamp)
}

func TestRecorderFullInboxDropsInsteadOfBlocking(t *testing.T) {
	recorder := NewRecorder(NewInMemoryStore(), 1, testLogger())
	ctx := context.Background()

	recorder.Emit(ctx, Event{ProcedureID: "p1", Type: EventStateChange})

	done := make(chan struct{})
	go func() {
		recorder.Emit(ctx, Event{ProcedureID: "p1", Type: EventStateChange})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
	assert.Len(t, recorder.inbox, 1)
}
