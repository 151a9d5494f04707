// Package messaging provides the live websocket feed pushed to connected
// admin dashboards.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// EventType labels a live feed event.
type EventType string

const (
	EventView       EventType = "view"
	EventImpression EventType = "impression"
)

// LiveEvent is one tick on the live feed.
type LiveEvent struct {
	Type      EventType `json:"type"`
	SubjectID string    `json:"subjectId,omitempty"`
	AdID      string    `json:"adId,omitempty"`
	SlotType  string    `json:"slotType,omitempty"`
	PageType  string    `json:"pageType,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LiveClient represents a single connected dashboard client.
type LiveClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// LiveBroadcaster fans live events out to every connected client. Publishing
// is fire-and-forget: a full client buffer or an empty room drops the event.
type LiveBroadcaster struct {
	clients    map[*LiveClient]bool
	register   chan *LiveClient
	unregister chan *LiveClient
	events     chan LiveEvent
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewLiveBroadcaster creates a new broadcaster instance.
func NewLiveBroadcaster(logger *logging.ChanneledLogger) *LiveBroadcaster {
	return &LiveBroadcaster{
		clients:    make(map[*LiveClient]bool),
		register:   make(chan *LiveClient),
		unregister: make(chan *LiveClient),
		events:     make(chan LiveEvent, 256),
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *LiveBroadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			count := len(b.clients)
			b.mu.Unlock()
			if b.logger != nil {
				b.logger.Live().Info("Live client registered", "clientCount", count)
			}

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			count := len(b.clients)
			b.mu.Unlock()
			if b.logger != nil {
				b.logger.Live().Info("Live client unregistered", "clientCount", count)
			}

		case event := <-b.events:
			b.broadcast(event)
		}
	}
}

// Publish queues an event for broadcast without blocking the caller.
func (b *LiveBroadcaster) Publish(event LiveEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case b.events <- event:
	default:
		// Feed saturated; live ticks are best-effort.
	}
}

// Register adds a client to the fanout set.
func (b *LiveBroadcaster) Register(client *LiveClient) {
	b.register <- client
}

// Unregister removes a client from the fanout set.
func (b *LiveBroadcaster) Unregister(client *LiveClient) {
	b.unregister <- client
}

func (b *LiveBroadcaster) broadcast(event LiveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		if b.logger != nil {
			b.logger.Live().Error("Failed to marshal live event", "error", err.Error())
		}
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer; drop this tick for that client.
		}
	}
}

func (b *LiveBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		close(client.Send)
		delete(b.clients, client)
	}
}

// WritePump drains a client's send channel onto its websocket connection.
// Runs until the channel closes or a write fails.
func (b *LiveBroadcaster) WritePump(client *LiveClient) {
	defer client.Conn.Close()
	for payload := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
