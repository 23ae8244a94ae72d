package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"medequip-cloud/internal/eventing"
)

// OutboxStore is an in-memory outbox for the no-database mode. It keeps
// the outbox-then-dispatch publishing path identical in both storage
// modes.
type OutboxStore struct {
	mu      sync.Mutex
	pending []eventing.OutboxRecord
	sent    map[string]time.Time
	failed  map[string]int
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{
		sent:   make(map[string]time.Time),
		failed: make(map[string]int),
	}
}

// Insert appends an envelope to the pending queue.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	if env.EventID == "" {
		return "", errors.New("memory outbox: empty event id")
	}

	id := eventing.NewEventID()
	s.mu.Lock()
	s.pending = append(s.pending, eventing.OutboxRecord{ID: id, Envelope: env})
	s.mu.Unlock()
	return id, nil
}

// ListPending returns up to limit pending records.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	if n > limit {
		n = limit
	}
	return append([]eventing.OutboxRecord(nil), s.pending[:n]...), nil
}

// MarkSent removes a record from the pending queue.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	s.sent[id] = time.Now().UTC()
	return nil
}

// MarkFailed removes a record from the pending queue and counts the
// failure.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	s.failed[id]++
	return nil
}

func (s *OutboxStore) remove(id string) {
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// ProcessedStore is an in-memory idempotency store.
type ProcessedStore struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewProcessedStore constructs a processed store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{seen: make(map[string]struct{})}
}

// HasProcessed checks if the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	_ = ctx
	if eventID == "" || consumerName == "" {
		return false, errors.New("memory processed store: invalid arguments")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[eventID+"|"+consumerName]
	return ok, nil
}

// MarkProcessed records the event as handled by the consumer.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, eventID, consumerName string) error {
	_ = ctx
	if eventID == "" || consumerName == "" {
		return errors.New("memory processed store: invalid arguments")
	}
	s.mu.Lock()
	s.seen[eventID+"|"+consumerName] = struct{}{}
	s.mu.Unlock()
	return nil
}

// DLQStore is an in-memory dead-letter sink.
type DLQStore struct {
	mu      sync.Mutex
	entries []FailedEvent
}

// FailedEvent pairs a failed envelope with its error text.
type FailedEvent struct {
	Envelope eventing.Envelope
	Reason   string
	At       time.Time
}

// NewDLQStore constructs a DLQ store.
func NewDLQStore() *DLQStore {
	return &DLQStore{}
}

// RecordFailure appends a failed envelope.
func (s *DLQStore) RecordFailure(ctx context.Context, env eventing.Envelope, cause error) error {
	_ = ctx
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	s.mu.Lock()
	s.entries = append(s.entries, FailedEvent{Envelope: env, Reason: reason, At: time.Now().UTC()})
	s.mu.Unlock()
	return nil
}

// Entries returns recorded failures.
func (s *DLQStore) Entries() []FailedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FailedEvent(nil), s.entries...)
}
