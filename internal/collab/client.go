package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	session     *auth.Session
	UserID      string
	DisplayName string
	BuildingID  string
	ClientID    string
	Role        string
}

func NewClient(hub *Hub, conn *websocket.Conn, session *auth.Session, displayName, buildingID, clientID, role string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		session:     session,
		UserID:      session.UserID,
		DisplayName: displayName,
		BuildingID:  buildingID,
		ClientID:    clientID,
		Role:        role,
	}
}

// CanEdit reports whether the client may move floors.
func (c *Client) CanEdit() bool {
	return c.Role == "owner" || c.Role == "editor"
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			c.SendError("invalid message")
			continue
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.BuildingID = c.BuildingID

		c.hub.handleMessage(ctx, c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// enqueue queues msg without blocking. The caller must hold the hub lock so
// the send channel cannot be closed underneath it.
func (c *Client) enqueue(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

// Send queues msg for the client. It is a no-op once the client has left.
func (c *Client) Send(msg *Message) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed() {
		return
	}
	c.enqueue(msg)
}

func (c *Client) SendError(text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	c.Send(msg)
}

// closed reports whether the hub already dropped the client. Callers hold
// the hub lock.
func (c *Client) closed() bool {
	room, ok := c.hub.rooms[c.BuildingID]
	if !ok {
		return true
	}
	return room.clients[c.ClientID] != c
}
