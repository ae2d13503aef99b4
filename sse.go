package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// message is one named server-sent event.
type message struct {
	Event string
	Data  []byte
}

func (m message) writeTo(w http.ResponseWriter) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Event, m.Data)
}

func newMessage(event string, v any) (message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return message{}, fmt.Errorf("encode %s event: %w", event, err)
	}
	return message{Event: event, Data: data}, nil
}

// client represents a single SSE connection, typically another tab on the
// same device.
type client struct {
	ch     chan message
	gameID string
}

// Broadcaster fans game updates out to SSE clients grouped by game.
type Broadcaster struct {
	mu    sync.RWMutex
	games map[string]map[*client]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		games: make(map[string]map[*client]struct{}),
	}
}

// Register adds a client for a game and returns it.
func (b *Broadcaster) Register(gameID string) *client {
	c := &client{
		ch:     make(chan message, sseChannelBuffer),
		gameID: gameID,
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.games[gameID] == nil {
		b.games[gameID] = make(map[*client]struct{})
	}
	b.games[gameID][c] = struct{}{}
	return c
}

// Unregister removes a client and closes its channel. Unknown clients are
// ignored.
func (b *Broadcaster) Unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.games[c.gameID]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.ch)
	if len(clients) == 0 {
		delete(b.games, c.gameID)
	}
}

// Publish encodes data as JSON and sends it as a named event to every client
// of a game. Clients whose buffer is full miss the event.
func (b *Broadcaster) Publish(gameID, event string, data any) {
	msg, err := newMessage(event, data)
	if err != nil {
		slog.Error("publish stream event", "game", gameID, "err", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.games[gameID] {
		select {
		case c.ch <- msg:
		default:
			slog.Debug("stream client lagging, event dropped", "game", gameID, "event", event)
		}
	}
}

// Close disconnects every client of a game.
func (b *Broadcaster) Close(gameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.games[gameID] {
		close(c.ch)
	}
	delete(b.games, gameID)
}

// ClientCount returns the number of connected clients for a game.
func (b *Broadcaster) ClientCount(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.games[gameID])
}

// ServeSSE streams a game's events until the request ends or the game is
// closed. When initial is non-nil its event is sent first.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, gameID string, initial func() (string, any)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Register(gameID)
	defer b.Unregister(c)

	if initial != nil {
		msg, err := newMessage(initial())
		if err != nil {
			slog.Error("initial stream event", "game", gameID, "err", err)
			return
		}
		msg.writeTo(w)
		flusher.Flush()
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			msg.writeTo(w)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
