package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "note.created", Data: map[string]string{"id": "n1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"n1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_GraphThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger graph.updated.
	b.PublishChange("note", "created", "a")
	// Second event immediately should NOT trigger another graph.updated.
	b.PublishChange("folder", "updated", "b")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	graphCount := 0
	noteCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "graph.updated") {
				graphCount++
			} else {
				noteCount++
			}
		default:
			break loop
		}
	}

	if noteCount != 2 {
		t.Errorf("change events = %d, want 2", noteCount)
	}
	if graphCount != 1 {
		t.Errorf("graph events = %d, want 1 (throttled)", graphCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "note.updated", Data: map[string]string{"id": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "note.updated", Data: map[string]string{"id": "x"}})
	b.PublishChange("note", "updated", "x")
}

func TestPublishChange_EventName(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("diagram", "saved", "n1")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "\nevent: diagram.saved\n") {
			t.Errorf("unexpected frame %q", s)
		}
		if !strings.Contains(s, `"id":"n1"`) {
			t.Errorf("missing id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	// Diagrams do not touch the knowledge graph.
	time.Sleep(50 * time.Millisecond)
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra event %q", msg)
	default:
	}
}

func TestPublishChange_TrailingGraphUpdate(t *testing.T) {
	b := NewBroker(150 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("graph")
	defer b.Unsubscribe(ch)

	b.PublishChange("note", "created", "a")
	b.PublishChange("note", "updated", "a")
	b.PublishChange("note", "updated", "a")

	deadline := time.After(time.Second)
	for got := 0; got < 2; {
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), "event: graph.updated") {
				t.Fatalf("unexpected event %q", msg)
			}
			got++
		case <-deadline:
			t.Fatalf("got %d graph events, want leading and trailing", got)
		}
	}

	time.Sleep(300 * time.Millisecond)
	select {
	case msg := <-ch:
		t.Errorf("burst should coalesce into one trailing event, got extra %q", msg)
	default:
	}
}

func TestSubscribe_TopicFilter(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	notes := b.Subscribe("note")
	defer b.Unsubscribe(notes)
	all := b.Subscribe()
	defer b.Unsubscribe(all)

	b.PublishChange("diagram", "saved", "d1")
	b.PublishChange("note", "updated", "n1")

	select {
	case msg := <-notes:
		if !strings.Contains(string(msg), "event: note.updated") {
			t.Errorf("note subscriber got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for note event")
	}

	seen := 0
	timeout := time.After(time.Second)
	for seen < 3 {
		select {
		case <-all:
			seen++
		case <-timeout:
			t.Fatalf("unfiltered subscriber saw %d events, want 3", seen)
		}
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})

	for _, want := range []string{"id: 1\n", "id: 2\n"} {
		select {
		case msg := <-ch:
			if !strings.HasPrefix(string(msg), want) {
				t.Errorf("frame %q should start with %q", msg, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
}

func TestSSEHandler_TopicsQuery(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events?topics=folder", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	b.PublishChange("note", "updated", "n1")
	b.PublishChange("folder", "created", "f1")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("stream should open with a retry hint: %q", body)
	}
	if strings.Contains(body, "note.updated") || strings.Contains(body, "graph.updated") {
		t.Errorf("filtered stream leaked events: %q", body)
	}
	if !strings.Contains(body, "event: folder.created") {
		t.Errorf("missing folder event: %q", body)
	}
}
