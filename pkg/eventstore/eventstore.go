// Package eventstore defines the event-store collaborator the runtime
// appends to, plus an in-memory implementation for demos and tests.
//
// Durability, replication, and aggregate replay belong to the store
// implementation, not to this module; the protocol and registry only consume
// this interface.
package eventstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
)

// Store errors.
var (
	// ErrStreamNotFound indicates a read from a stream with no events.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrVersionConflict indicates an optimistic concurrency failure.
	ErrVersionConflict = errors.New("expected version does not match stream version")
)

// AnyVersion disables the optimistic concurrency check on Append.
const AnyVersion uint64 = ^uint64(0)

// Store is an append-only event store with per-stream optimistic
// concurrency.
type Store interface {
	// Append writes events to the stream after the given version.
	// expectedVersion is the event number of the last event already in
	// the stream (0 for a new stream), or AnyVersion to skip the check.
	// It returns the position of the last appended event.
	Append(ctx context.Context, streamID string, expectedVersion uint64, events []NewEvent) (stream.Position, error)

	// Read returns the stream's events with event numbers >= from.
	Read(ctx context.Context, streamID string, from uint64) ([]stream.Event, error)

	// Version returns the event number of the stream's last event, or 0
	// and ErrStreamNotFound for an unknown stream.
	Version(ctx context.Context, streamID string) (uint64, error)
}

// NewEvent is an event payload awaiting a position.
type NewEvent struct {
	Type string
	Data []byte
}

// MemoryStore is a map-backed Store. Event numbers start at 1 and are
// monotonic per stream.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]stream.Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]stream.Event)}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, streamID string, expectedVersion uint64, events []NewEvent) (stream.Position, error) {
	if streamID == "" {
		return stream.Position{}, stream.ErrEmptyStreamID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.streams[streamID]
	version := uint64(len(existing))

	if expectedVersion != AnyVersion && expectedVersion != version {
		return stream.Position{}, ErrVersionConflict
	}

	now := time.Now().UTC()
	for i, ev := range events {
		s.streams[streamID] = append(s.streams[streamID], stream.Event{
			Position: stream.Position{
				StreamID:    streamID,
				EventNumber: version + uint64(i) + 1,
			},
			Type:      ev.Type,
			Data:      ev.Data,
			Timestamp: now,
		})
	}

	return stream.Position{
		StreamID:    streamID,
		EventNumber: version + uint64(len(events)),
	}, nil
}

// Read implements Store.
func (s *MemoryStore) Read(ctx context.Context, streamID string, from uint64) ([]stream.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.streams[streamID]
	if !ok {
		return nil, ErrStreamNotFound
	}

	result := make([]stream.Event, 0, len(events))
	for _, ev := range events {
		if ev.Position.EventNumber >= from {
			result = append(result, ev)
		}
	}
	return result, nil
}

// Version implements Store.
func (s *MemoryStore) Version(ctx context.Context, streamID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.streams[streamID]
	if !ok {
		return 0, ErrStreamNotFound
	}
	return uint64(len(events)), nil
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)
