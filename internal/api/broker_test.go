package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	topic := "2026-08-26"
	ch := b.Subscribe(topic)

	evt := SSEEvent{Type: "plan.computed", Data: map[string]any{"planId": "p1"}}
	b.Publish(topic, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["planId"].(string) != "p1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(topic, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerWildcardReceivesAllDates(t *testing.T) {
	b := NewBroker()
	all := b.Subscribe(TopicAll)

	b.Publish("2026-08-26", SSEEvent{Type: "plan.computed", Data: map[string]any{"planId": "p1"}})
	b.Publish("2026-08-27", SSEEvent{Type: "plan.infeasible", Data: map[string]any{"planId": "p2"}})

	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("wildcard subscriber missed event %d", i)
		}
	}
	b.Unsubscribe(TopicAll, all)
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("d")
	for i := 0; i < 20; i++ {
		b.Publish("d", SSEEvent{Type: "plan.computed"})
	}
	// buffered at 8; the rest must be dropped without blocking Publish
	if n := len(ch); n != 8 {
		t.Fatalf("expected full buffer of 8, got %d", n)
	}
	b.Unsubscribe("d", ch)
}
