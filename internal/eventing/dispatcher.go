package eventing

import "context"

const defaultDispatchBatch = 50

// EventBus is the minimal publish interface.
type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// OutboxStore provides access to pending outbox records.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// DLQStore records undeliverable events.
type DLQStore interface {
	RecordFailure(ctx context.Context, env Envelope, err error) error
}

// OutboxRecord is a stored envelope awaiting delivery.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// Dispatcher drains the outbox onto the in-process bus. Decode and
// publish failures park the record in the dead letter store so a bad
// maintenance event cannot wedge the queue.
type Dispatcher struct {
	bus      EventBus
	outbox   OutboxStore
	registry *Registry
	dlq      DLQStore
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus EventBus, outbox OutboxStore, registry *Registry, dlq DLQStore) *Dispatcher {
	return &Dispatcher{bus: bus, outbox: outbox, registry: registry, dlq: dlq}
}

// Dispatch delivers up to limit pending outbox messages.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil || d.bus == nil || d.registry == nil {
		return nil
	}
	if limit <= 0 {
		limit = defaultDispatchBatch
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for _, record := range records {
		payload, err := d.registry.DecodePayload(record.Envelope)
		if err != nil {
			d.park(ctx, record, err)
			continue
		}
		if err := d.bus.Publish(WithEnvelope(ctx, record.Envelope), payload); err != nil {
			d.park(ctx, record, err)
			continue
		}
		_ = d.outbox.MarkSent(ctx, record.ID)
	}
	return nil
}

func (d *Dispatcher) park(ctx context.Context, record OutboxRecord, cause error) {
	_ = d.outbox.MarkFailed(ctx, record.ID)
	if d.dlq != nil {
		_ = d.dlq.RecordFailure(ctx, record.Envelope, cause)
	}
}
