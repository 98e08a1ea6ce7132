package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

type report struct {
	Tick      int `json:"tick"`
	Refreshed int `json:"refreshed"`
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestPublishReachesObserver(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	conn := dial(t, h)

	if err := h.Publish(report{Tick: 7, Refreshed: 9}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var got report
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != (report{Tick: 7, Refreshed: 9}) {
		t.Errorf("Expected tick 7 with 9 refreshed, got %+v", got)
	}
}

func TestObserverLeaves(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	conn := dial(t, h)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Observer still registered after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishWithoutObservers(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	if err := h.Publish(report{Tick: 1}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := h.Publish(func() {}); err == nil {
		t.Errorf("Expected an encoding error")
	}
}

func TestRejectsRequests(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for POST, got %d", rec.Code)
	}

	// httptest requests come from a non-loopback documentation address.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for remote observer, got %d", rec.Code)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for addr, want := range tests {
		if got := isLoopbackRemote(addr); got != want {
			t.Errorf("isLoopbackRemote(%q) = %v, want %v", addr, got, want)
		}
	}
}
