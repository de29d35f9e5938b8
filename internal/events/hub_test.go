package events

import (
	"encoding/json"
	"testing"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	if h.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", h.Subscribers())
	}

	h.Publish("hello")
	select {
	case got := <-ch:
		if got != "hello" {
			t.Fatalf("got %q", got)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHubDropsWhenSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Channel buffer is 10; everything past that is dropped, not blocked.
	for i := 0; i < 50; i++ {
		h.Publish("evt")
	}

	n := 0
	for {
		select {
		case <-ch:
			n++
			continue
		default:
		}
		break
	}
	if n != 10 {
		t.Fatalf("delivered = %d, want 10 buffered", n)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if h.Subscribers() != 0 {
		t.Fatalf("subscribers = %d, want 0", h.Subscribers())
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish("evt")
}

func TestMakeEventEnvelope(t *testing.T) {
	s := MakeEvent("req-1", TypeJobCreated, 1, map[string]any{"id": 7})

	var e Event
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Type != TypeJobCreated || e.Version != 1 || e.RequestID != "req-1" {
		t.Fatalf("envelope = %+v", e)
	}
	var data struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil || data.ID != 7 {
		t.Fatalf("data = %s", e.Data)
	}
	if e.At.IsZero() {
		t.Fatal("timestamp not set")
	}
}
