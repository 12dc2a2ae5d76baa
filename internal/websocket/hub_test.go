package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	c3 := mockClient(hub, 2)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}

	hub.Unregister(c1)
	if !hub.IsOnline(1) {
		t.Error("user 1 should still be online through c2")
	}

	hub.Unregister(c2)
	if hub.IsOnline(1) {
		t.Error("user 1 should be offline")
	}

	hub.Unregister(c3)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestSendToUser(t *testing.T) {
	hub := NewHub(slog.Default())

	mine1 := mockClient(hub, 7)
	mine2 := mockClient(hub, 7)
	other := mockClient(hub, 8)
	hub.Register(mine1)
	hub.Register(mine2)
	hub.Register(other)

	n := hub.SendToUser(7, NewMessage("notification", map[string]any{"title": "Price Drop!"}))
	if n != 2 {
		t.Fatalf("sent = %d, want 2", n)
	}

	for _, c := range []*Client{mine1, mine2} {
		got := receive(t, c)
		if got.Type != "notification" {
			t.Errorf("type = %q, want %q", got.Type, "notification")
		}
		data, ok := got.Data.(map[string]any)
		if !ok || data["title"] != "Price Drop!" {
			t.Errorf("data = %v, want title Price Drop!", got.Data)
		}
	}

	select {
	case <-other.send:
		t.Error("other user should not receive the message")
	default:
	}
}

func TestSendToOfflineUser(t *testing.T) {
	hub := NewHub(slog.Default())
	if n := hub.SendToUser(99, NewMessage("notification", nil)); n != 0 {
		t.Errorf("sent = %d, want 0", n)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 2)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage("catalog_updated", nil))

	for _, c := range []*Client{c1, c2} {
		if got := receive(t, c); got.Type != "catalog_updated" {
			t.Errorf("type = %q, want %q", got.Type, "catalog_updated")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestSendFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.SendToUser(1, NewMessage("fill", i))
	}

	// This should drop the message, not block
	if n := hub.SendToUser(1, NewMessage("dropped", nil)); n != 0 {
		t.Errorf("sent = %d, want 0 on full buffer", n)
	}

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			c := mockClient(hub, userID)
			hub.Register(c)
			hub.SendToUser(userID, NewMessage("concurrent", nil))
			hub.Broadcast(NewMessage("concurrent", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i % 4))
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	hub := NewHub(slog.Default())
	h := HandleWebSocket(hub, slog.Default())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
