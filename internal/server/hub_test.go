package server

import (
	"fmt"
	"testing"

	"go.uber.org/zap"

	"dutch/internal/model"
)

func TestSlowClientIsClosed(t *testing.T) {
	c := newClient("slow", nil, zap.NewNop())
	for i := 0; i <= sendBuffer; i++ {
		c.writeJSON(model.Message{Type: model.EventInfo, Payload: fmt.Sprint(i)})
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		t.Fatal("client kept after overflowing its buffer")
	}

	n := 0
	for range c.send {
		n++
	}
	if n != sendBuffer {
		t.Fatalf("drained %d queued messages, want %d", n, sendBuffer)
	}

	// later sends and closes are no-ops
	c.writeJSON(model.Message{Type: model.EventInfo, Payload: "late"})
	c.close()
}

func TestHubSendSkipsUnknownPlayer(t *testing.T) {
	h := NewHub(nil)
	c := newClient("p1", nil, zap.NewNop())
	h.register(c)
	h.Send("nobody", model.Message{Type: model.EventInfo, Payload: "x"})
	h.Send("p1", model.Message{Type: model.EventInfo, Payload: "hi"})
	if len(c.send) != 1 {
		t.Fatalf("queued %d messages, want 1", len(c.send))
	}
	h.unregister(c)
	h.Send("p1", model.Message{Type: model.EventInfo, Payload: "gone"})
}
