package hub

import (
	"encoding/json"
	"testing"
	"time"
)

// fakeClient builds a registered client without a websocket connection.
// The pumps are never started, so the nil conn is never touched.
func fakeClient(t *testing.T, h *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, h.ClientCount())
}

func TestBroadcastFanOut(t *testing.T) {
	h := New("test")
	go h.Run()

	a := fakeClient(t, h, 64)
	b := fakeClient(t, h, 64)
	waitForClients(t, h, 2)

	if err := h.BroadcastJSON(map[string]string{"type": "turn"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for _, c := range []*Client{a, b} {
		msg, ok := receive(t, c)
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		var decoded map[string]string
		if err := json.Unmarshal(msg.Data, &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded["type"] != "turn" {
			t.Errorf("unexpected payload: %s", msg.Data)
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("test")
	go h.Run()

	fast := fakeClient(t, h, 64)
	slow := fakeClient(t, h, 0) // nothing draining, first send overflows
	waitForClients(t, h, 2)

	h.Broadcast(NewJSONMessage([]byte(`{"n":1}`)))

	if msg, ok := receive(t, fast); !ok || string(msg.Data) != `{"n":1}` {
		t.Fatalf("fast client did not receive the message: %q ok=%v", msg.Data, ok)
	}

	waitForClients(t, h, 1)
	if _, ok := receive(t, slow); ok {
		t.Error("slow client's send channel should be closed")
	}

	// Survivors keep receiving after the drop.
	h.Broadcast(NewJSONMessage([]byte(`{"n":2}`)))
	if msg, ok := receive(t, fast); !ok || string(msg.Data) != `{"n":2}` {
		t.Fatalf("fast client missed the follow-up: %q ok=%v", msg.Data, ok)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := New("test")
	go h.Run()

	c := fakeClient(t, h, 64)
	waitForClients(t, h, 1)

	h.unregister <- c
	waitForClients(t, h, 0)

	if _, ok := receive(t, c); ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestBroadcastJSONMarshalError(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error for unencodable value")
	}
}
