package collab

import (
	"encoding/json"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

type Message struct {
	Type       string          `json:"type"`
	BuildingID string          `json:"buildingId,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Floor editing
	TypeFloorPosition   = "floor.position"
	TypeModelInvalidate = "model.invalidate"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	Role     string `json:"role"`

	// Drafts are floor offsets other clients are dragging but have not
	// committed yet.
	Drafts []FloorPositionPayload `json:"drafts"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PresencePayload struct {
	FocusedFloor string `json:"focusedFloor,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"` // clientID -> presence

	// Floors counts the clients focused on each floor.
	Floors map[string]int `json:"floors"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`

	// AbandonedFloors lists floors the client was dragging when it left.
	AbandonedFloors []string `json:"abandonedFloors,omitempty"`
}

// FloorPositionPayload carries a floor offset. Without Commit it is a live
// drag relayed to the room; with Commit the offset is also stored.
type FloorPositionPayload struct {
	FloorID  string            `json:"floorId"`
	Position document.Position `json:"position"`
	Commit   bool              `json:"commit,omitempty"`
}

type ModelInvalidatePayload struct {
	Revision int64 `json:"revision"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}
