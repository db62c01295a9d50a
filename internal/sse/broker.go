// Package sse implements a Server-Sent Events broker for index rebuild notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types emitted by the broker.
const (
	EventContentChanged = "content.changed"
	EventIndexRebuilt   = "index.rebuilt"
	EventIndexFailed    = "index.failed"
)

var heartbeat = []byte(": ping\n\n")

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type changeReq struct {
	op   string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the per-path change throttle.
// Public methods talk to it over channels.
type Broker struct {
	changeMin time.Duration
	pingEvery time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. Repeated content.changed events for one path
// within changeThrottle are coalesced. A positive ping interval sends SSE
// comment heartbeats to idle clients.
func NewBroker(changeThrottle, ping time.Duration) *Broker {
	if changeThrottle <= 0 {
		changeThrottle = 500 * time.Millisecond
	}

	b := &Broker{
		changeMin:     changeThrottle,
		pingEvery:     ping,
		subscribeCh:   make(chan chan []byte),
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

	clients := make(map[chan []byte]struct{})
	lastChange := make(map[string]time.Time)

	var pingC <-chan time.Time
	if b.pingEvery > 0 {
		ticker := time.NewTicker(b.pingEvery)
		defer ticker.Stop()
		pingC = ticker.C
	}

	send := func(raw []byte) {
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}
	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		send([]byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)))
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			now := time.Now()
			if now.Sub(lastChange[req.path]) < b.changeMin {
				continue
			}
			lastChange[req.path] = now
			broadcast(Event{Type: EventContentChanged, Data: map[string]string{"path": req.path, "op": req.op}})

			for p, at := range lastChange {
				if now.Sub(at) >= b.changeMin {
					delete(lastChange, p)
				}
			}

		case <-pingC:
			send(heartbeat)

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

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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

// PublishChange announces a content file change, throttled per path.
func (b *Broker) PublishChange(op, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{op: op, path: path}:
	case <-b.stopped:
	}
}

// PublishRebuilt announces a successful rebuild with its summary.
func (b *Broker) PublishRebuilt(summary any) {
	b.Publish(Event{Type: EventIndexRebuilt, Data: summary})
}

// PublishFailed announces a failed rebuild. The previous index stays served.
func (b *Broker) PublishFailed(err error) {
	b.Publish(Event{Type: EventIndexFailed, Data: map[string]string{"error": err.Error()}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
