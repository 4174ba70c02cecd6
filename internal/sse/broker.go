// Package sse implements a Server-Sent Events broker that pushes library
// changes to connected front-ends.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Topic returns the part of the event type before the first dot, e.g.
// "note" for "note.updated".
func (e Event) Topic() string {
	topic, _, _ := strings.Cut(e.Type, ".")
	return topic
}

// GraphUpdated is sent after changes that alter the knowledge graph.
const GraphUpdated = "graph.updated"

// keepAlive is the interval of comment frames that stop idle proxies from
// dropping the stream.
const keepAlive = 25 * time.Second

type changeReq struct {
	entity string
	kind   string
	id     string
}

// Entities whose changes alter the knowledge graph.
var graphEntities = map[string]bool{"note": true, "folder": true}

// subscriber is one connected client. An empty topic set receives everything.
type subscriber struct {
	ch     chan []byte
	topics map[string]bool
}

func (s subscriber) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, event sequence, graph throttle). Public methods communicate with this
// loop through channels, so no mutexes are required.
//
// graph.updated is rate limited to one per throttle interval. A change that
// lands inside the interval schedules one trailing graph.updated at its end,
// so clients always see the final graph.
type Broker struct {
	graphMin time.Duration

	subscribeCh   chan subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given graph throttle interval.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:      graphThrottle,
		subscribeCh:   make(chan subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]subscriber)
	var seq uint64

	var (
		lastGraph time.Time
		trailing  *time.Timer
		trailDue  <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		topic := event.Topic()
		for ch, sub := range clients {
			if !sub.wants(topic) {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	graphChanged := func(now time.Time) {
		if trailDue != nil {
			return
		}
		if wait := b.graphMin - now.Sub(lastGraph); wait > 0 {
			trailing = time.NewTimer(wait)
			trailDue = trailing.C
			return
		}
		lastGraph = now
		broadcast(Event{Type: GraphUpdated, Data: map[string]string{}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			data := map[string]string{}
			if req.id != "" {
				data["id"] = req.id
			}
			broadcast(Event{Type: req.entity + "." + req.kind, Data: data})
			if graphEntities[req.entity] {
				graphChanged(time.Now())
			}

		case now := <-trailDue:
			trailing, trailDue = nil, nil
			lastGraph = now
			broadcast(Event{Type: GraphUpdated, Data: map[string]string{}})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. With topics the
// client only receives events whose type starts with one of them, e.g.
// "note" or "graph".
func (b *Broker) Subscribe(topics ...string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	sub := subscriber{ch: ch}
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			if sub.topics == nil {
				sub.topics = make(map[string]bool)
			}
			sub.topics[t] = true
		}
	}

	select {
	case b.subscribeCh <- sub:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange publishes "<entity>.<kind>" and, for notes and folders, a
// throttled graph.updated event.
func (b *Broker) PublishChange(entity, kind, id string) {
	if b.closed.Load() || entity == "" || kind == "" {
		return
	}
	select {
	case b.changeCh <- changeReq{entity: entity, kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// topics query parameter is a comma-separated list of event topics.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var topics []string
	if raw := r.URL.Query().Get("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	ch := b.Subscribe(topics...)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
