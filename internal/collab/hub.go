// Package collab pushes scene changes to connected views over WebSocket.
package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/document"
)

// Source is what the hub reads when a view needs the full scene.
type Source interface {
	SceneID() string
	Snapshot() *document.Document
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	seq      int64

	source     Source
	register   chan *Client
	unregister chan *Client
	syncs      chan *Client
	changes    chan command.Change
	done       chan struct{}
}

func NewHub(source Source) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		source:     source,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		syncs:      make(chan *Client),
		changes:    make(chan command.Change, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.drainChanges()
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case client := <-h.syncs:
			h.drainChanges()
			h.sendDocument(client)
		case chg := <-h.changes:
			h.broadcastChange(chg)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register adds client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// requestSync asks Run to send client a fresh document.
func (h *Hub) requestSync(client *Client) {
	select {
	case h.syncs <- client:
	case <-h.done:
	}
}

// drainChanges broadcasts every queued change so a document sent next is
// stamped with a sequence that covers them.
func (h *Hub) drainChanges() {
	for {
		select {
		case chg := <-h.changes:
			h.broadcastChange(chg)
		default:
			return
		}
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues chg for broadcast. It never blocks, so it is safe to call
// from inside an engine subscription.
func (h *Hub) Publish(chg command.Change) {
	select {
	case h.changes <- chg:
	default:
		slog.Warn("change queue full, dropping change", "label", chg.Label)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	if msg, err := newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, SceneID: h.source.SceneID()}); err == nil {
		client.Send(msg)
	}
	h.sendDocument(client)
	if stateMsg := h.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	slog.Info("client joined", "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	h.mu.Unlock()
	client.close()

	h.presence.Remove(client.ClientID)
	if msg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}); err == nil {
		h.broadcast(msg, "")
	}

	slog.Info("client left", "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) broadcastChange(chg command.Change) {
	for _, r := range chg.Removed {
		h.presence.ForgetCanvas(r.ID)
	}
	msg, err := newMessage(TypeChange, chg)
	if err != nil {
		slog.Error("marshal change", "error", err)
		return
	}
	h.mu.Lock()
	h.seq++
	msg.Seq = h.seq
	h.mu.Unlock()
	h.broadcast(msg, "")
}

func (h *Hub) sendDocument(client *Client) {
	msg, err := newMessage(TypeDocSync, h.source.Snapshot())
	if err != nil {
		slog.Error("marshal document", "error", err)
		return
	}
	h.mu.RLock()
	msg.Seq = h.seq
	h.mu.RUnlock()
	client.Send(msg)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeDocSync:
		h.requestSync(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		if reply, err := newMessage(TypeError, ErrorPayload{Message: "unknown message type " + msg.Type}); err == nil {
			sender.Send(reply)
		}
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	h.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcast(outMsg, sender.ClientID)
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
