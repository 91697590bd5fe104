package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestPlanWSStreamsEvents(t *testing.T) {
	s := testServer()
	srv := httptest.NewServer(http.HandlerFunc(s.PlanWSHandler))
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "?date=2026-08-26"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// give the handler a moment to register its subscription
	time.Sleep(100 * time.Millisecond)
	s.Broker.Publish("2026-08-26", SSEEvent{Type: "plan.computed", Data: map[string]any{"planId": "p1"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "plan.computed" || msg.Data["planId"] != "p1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
