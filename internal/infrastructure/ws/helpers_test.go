package ws

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// newTestDispatcher wires a registry, broadcaster and dispatcher backed by a
// no-op logger and a throwaway metrics registry.
func newTestDispatcher(t *testing.T) (*Registry, *Dispatcher) {
	t.Helper()

	logger := zap.NewNop().Sugar()
	m := metrics.New()

	registry := NewRegistry(logger, m)
	broadcaster := NewBroadcaster(registry, logger, m)
	dispatcher := NewDispatcher(registry, broadcaster, logger, m)

	return registry, dispatcher
}

// newTestClient builds a client without an underlying socket; tests read
// delivered events straight off the outbound channel.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(nil, uuid.NewString(), Options{SendBuffer: 8}, zap.NewNop().Sugar())
}

// connect registers a client and joins it to the given user's room.
func connect(t *testing.T, registry *Registry, userID string) *Client {
	t.Helper()

	c := newTestClient(t)
	registry.AddConnection(c)
	if userID != "" {
		registry.Join(c, userID)
	}
	return c
}

func envelope(t *testing.T, eventType string, payload any) *Envelope {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &Envelope{Type: eventType, Data: raw}
}

// mustReceive pops the next buffered event or fails; dispatch in these tests
// is synchronous, so a delivered event is already in the channel.
func mustReceive(t *testing.T, c *Client) *Event {
	t.Helper()

	select {
	case ev := <-c.Message:
		return ev
	default:
		t.Fatal("expected an event but the outbound buffer is empty")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev := <-c.Message:
		t.Fatalf("expected no event, got %q", ev.Type)
	default:
	}
}

// drain discards everything currently buffered for the client, stopping if
// the channel was closed by a removal.
func drain(c *Client) {
	for {
		select {
		case _, ok := <-c.Message:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// decodeData round-trips an outbound payload into dst for field assertions.
func decodeData(t *testing.T, ev *Event, dst any) {
	t.Helper()

	raw, err := json.Marshal(ev.Data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
}
