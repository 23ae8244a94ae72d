package eventing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"medequip-cloud/internal/eventing"
	"medequip-cloud/internal/eventing/eventbus"
	"medequip-cloud/internal/eventing/infrastructure/memory"
)

type assetMoved struct {
	AssetID    string    `json:"asset_id"`
	LocationID string    `json:"location_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func TestPublishDeliversThroughOutbox(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(assetMoved{})

	outbox := memory.NewOutboxStore()
	dlq := memory.NewDLQStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, dlq)
	publisher := eventing.NewPublisher(outbox, dispatcher, "facility-1", bus)

	var received []assetMoved
	var facilityIDs []string
	bus.Subscribe(eventbus.EventTypeOf[assetMoved](), func(ctx context.Context, event any) error {
		moved, ok := event.(assetMoved)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		received = append(received, moved)
		if env, ok := eventing.EnvelopeFromContext(ctx); ok {
			facilityIDs = append(facilityIDs, env.FacilityID)
		}
		return nil
	})

	err := publisher.Publish(context.Background(), assetMoved{
		AssetID:    "asset-1",
		LocationID: "icu-1",
		OccurredAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("received = %d, want 1", len(received))
	}
	if received[0].AssetID != "asset-1" || received[0].LocationID != "icu-1" {
		t.Fatalf("event = %+v", received[0])
	}
	if len(facilityIDs) != 1 || facilityIDs[0] != "facility-1" {
		t.Fatalf("facility ids = %v", facilityIDs)
	}

	pending, err := outbox.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after dispatch = %d, want 0", len(pending))
	}
}

func TestWrapHandlerSkipsProcessedEvents(t *testing.T) {
	processed := memory.NewProcessedStore()
	calls := 0

	env, err := eventing.BuildEnvelope(assetMoved{AssetID: "asset-1"}, eventing.Meta{FacilityID: "facility-1"})
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	// Deliver the same envelope twice; the consumer must run once.
	ctx := eventing.WithEnvelope(context.Background(), env)
	wrapped := eventing.WrapHandler("test.consumer", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, processed)
	if err := wrapped(ctx, assetMoved{AssetID: "asset-1"}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := wrapped(ctx, assetMoved{AssetID: "asset-1"}); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestDispatchSendsUnknownTypesToDLQ(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()

	outbox := memory.NewOutboxStore()
	dlq := memory.NewDLQStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, dlq)

	env, err := eventing.BuildEnvelope(assetMoved{AssetID: "asset-1"}, eventing.Meta{FacilityID: "facility-1"})
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	if _, err := outbox.Insert(context.Background(), env); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if entries := dlq.Entries(); len(entries) != 1 {
		t.Fatalf("dlq entries = %d, want 1", len(entries))
	}
}

func TestBusPublishNilEvent(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, eventbus.ErrNilEvent) {
		t.Fatalf("err = %v, want ErrNilEvent", err)
	}
}
