package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/spindle-dev/spindle/internal/events"
	"github.com/spindle-dev/spindle/internal/models"
)

// RunEvent is a single observation from a running agent process.
type RunEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"line,omitempty"`
	ExitCode  int       `json:"exit_code,omitempty"`
	Tail      []string  `json:"tail,omitempty"`
}

// Run event types.
const (
	EventOutputLine = "output_line"
	EventHeartbeat  = "heartbeat"
	EventExit       = "exit"
)

// EventSink receives run events from the runner.
type EventSink interface {
	Emit(ctx context.Context, event RunEvent) error
	Close() error
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Emit(ctx context.Context, event RunEvent) error { return nil }
func (NoopSink) Close() error                                   { return nil }

// SocketEventSink streams events as JSON lines over a unix socket, for
// local tooling that wants to follow a run live.
type SocketEventSink struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewSocketEventSink connects to the unix socket at path.
func NewSocketEventSink(path string) (*SocketEventSink, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial event socket: %w", err)
	}
	return &SocketEventSink{conn: conn}, nil
}

func (s *SocketEventSink) Emit(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write run event: %w", err)
	}
	return nil
}

func (s *SocketEventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// MultiSink fans events out to several sinks. Emit and Close return
// the first error seen but always visit every sink.
type MultiSink []EventSink

func (m MultiSink) Emit(ctx context.Context, event RunEvent) error {
	var first error
	for _, sink := range m {
		if err := sink.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) Close() error {
	var first error
	for _, sink := range m {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DatabaseEventSink records run events in the coordination log. Output
// lines are skipped; only heartbeats and exits are durable.
type DatabaseEventSink struct {
	repo events.Repository
}

// NewDatabaseEventSink creates a sink backed by the event repository.
func NewDatabaseEventSink(repo events.Repository) *DatabaseEventSink {
	return &DatabaseEventSink{repo: repo}
}

func (s *DatabaseEventSink) Emit(ctx context.Context, event RunEvent) error {
	if event.Type == EventOutputLine {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	return s.repo.Create(ctx, &models.Event{
		Type:       models.EventType("runner." + event.Type),
		EntityType: models.EntityTypeAgent,
		EntityID:   event.Agent,
		Payload:    payload,
		Metadata:   map[string]string{"session_id": event.SessionID},
	})
}

func (s *DatabaseEventSink) Close() error { return nil }
