package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/storage"
)

type fakeTelemetryStore struct {
	events []storage.TelemetryEvent
}

func (f *fakeTelemetryStore) AppendTelemetryEvent(_ context.Context, evt storage.TelemetryEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func TestEmitStampsTimestamp(t *testing.T) {
	store := &fakeTelemetryStore{}
	emitter := NewEmitter(store)
	emitter.clock = func() time.Time {
		return time.Date(2024, time.June, 6, 12, 0, 0, 0, time.UTC)
	}

	evt := storage.TelemetryEvent{Kind: KindTurnProcessed, Severity: string(SeverityInfo)}
	if err := emitter.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	if store.events[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp stamped")
	}
}

func TestEmitNilEmitterAndStore(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("nil emitter emit: %v", err)
	}
	empty := &Emitter{}
	if err := empty.Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("nil store emit: %v", err)
	}
}
