// Package collab runs the per-building live editing channel: who is looking
// at which floor, floors being dragged, and model invalidations.
package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

// PositionStore commits floor offsets.
type PositionStore interface {
	SetFloorPosition(ctx context.Context, actor *auth.Session, buildingID, floorID string, pos document.Position) error
}

type Room struct {
	buildingID string
	clients    map[string]*Client // clientID -> client
	presence   *PresenceManager
	drafts     *DraftSet
}

func NewRoom(buildingID string) *Room {
	return &Room{
		buildingID: buildingID,
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		drafts:     NewDraftSet(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // buildingID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	store      PositionStore
}

func NewHub(store PositionStore) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		store:      store,
	}
}

// Run serves registrations until ctx is done. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Register adds client to its building's room. It reports false once Run
// has returned.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BuildingID]
	if !ok {
		room = NewRoom(client.BuildingID)
		h.rooms[client.BuildingID] = room
	}
	room.clients[client.ClientID] = client

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		Role:     client.Role,
		Drafts:   room.drafts.All(),
	})
	if err == nil {
		client.enqueue(welcome)
	}
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.enqueue(stateMsg)
	}
	room.presence.Update(client.ClientID, PresencePayload{DisplayName: client.DisplayName})
	h.mu.Unlock()

	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		joinMsg.UserID = client.UserID
		joinMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.BuildingID, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "user", client.UserID, "building", client.BuildingID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BuildingID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)
	abandoned := room.drafts.RemoveClient(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.BuildingID)
	}
	h.mu.Unlock()

	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{
		ClientID:        client.ClientID,
		UserID:          client.UserID,
		AbandonedFloors: abandoned,
	})
	if err == nil {
		leaveMsg.UserID = client.UserID
		leaveMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.BuildingID, leaveMsg, "")
	}

	slog.Info("client left", "user", client.UserID, "building", client.BuildingID, "client", client.ClientID)
}

// Invalidate tells every client in the building that the stored model moved
// to revision. Pending drafts are dropped since the stored offsets now win.
func (h *Hub) Invalidate(buildingID string, revision int64) {
	h.mu.RLock()
	room, ok := h.rooms[buildingID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	room.drafts.Clear()

	msg, err := newMessage(TypeModelInvalidate, ModelInvalidatePayload{Revision: revision})
	if err != nil {
		slog.Error("marshal invalidate", "error", err)
		return
	}
	msg.BuildingID = buildingID
	h.broadcastToRoom(buildingID, msg, "")
}

// ClientCount returns the number of clients connected to a building.
func (h *Hub) ClientCount(buildingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[buildingID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) room(buildingID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[buildingID]
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeFloorPosition:
		h.handleFloorPosition(ctx, sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.SendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		sender.SendError("invalid presence.update payload")
		return
	}
	if err := presence.validate(); err != nil {
		sender.SendError("invalid presence.update payload: " + err.Error())
		return
	}

	presence.DisplayName = sender.DisplayName

	room := h.room(sender.BuildingID)
	if room == nil {
		return
	}
	room.presence.Update(sender.ClientID, presence)

	outMsg, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	outMsg.UserID = sender.UserID
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.BuildingID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(buildingID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[buildingID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.enqueue(msg)
		}
	}
}
