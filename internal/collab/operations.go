package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
)

type draft struct {
	clientID string
	payload  FloorPositionPayload
}

// DraftSet holds the latest uncommitted offset per floor, so clients that
// join mid-drag see the floor where the dragging client has it.
type DraftSet struct {
	mu     sync.Mutex
	floors map[string]draft // floorID -> draft
}

func NewDraftSet() *DraftSet {
	return &DraftSet{floors: make(map[string]draft)}
}

func (d *DraftSet) Set(clientID string, p FloorPositionPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.Commit = false
	d.floors[p.FloorID] = draft{clientID: clientID, payload: p}
}

func (d *DraftSet) Remove(floorID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.floors, floorID)
}

// RemoveClient drops every draft owned by clientID and returns their floor
// ids in sorted order.
func (d *DraftSet) RemoveClient(clientID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var floors []string
	for id, dr := range d.floors {
		if dr.clientID == clientID {
			delete(d.floors, id)
			floors = append(floors, id)
		}
	}
	sort.Strings(floors)
	return floors
}

func (d *DraftSet) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.floors)
}

// All returns the drafts ordered by floor id.
func (d *DraftSet) All() []FloorPositionPayload {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]FloorPositionPayload, 0, len(d.floors))
	for _, dr := range d.floors {
		out = append(out, dr.payload)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FloorID < out[j].FloorID })
	return out
}

func (h *Hub) handleFloorPosition(ctx context.Context, sender *Client, msg *Message) {
	if !sender.CanEdit() {
		sender.SendError("read-only access")
		return
	}

	var p FloorPositionPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.FloorID == "" {
		sender.SendError("invalid floor.position payload")
		return
	}
	if !finite(p.Position.X) || !finite(p.Position.Z) {
		sender.SendError("position must be finite")
		return
	}

	room := h.room(sender.BuildingID)
	if room == nil {
		return
	}

	if p.Commit {
		if err := h.store.SetFloorPosition(ctx, sender.session, sender.BuildingID, p.FloorID, p.Position); err != nil {
			slog.Warn("commit floor position", "error", err, "building", sender.BuildingID, "floor", p.FloorID)
			sender.SendError(commitErrorText(err))
			return
		}
		room.drafts.Remove(p.FloorID)
	} else {
		room.drafts.Set(sender.ClientID, p)
	}

	out, err := newMessage(TypeFloorPosition, p)
	if err != nil {
		return
	}
	out.UserID = sender.UserID
	out.ClientID = sender.ClientID
	h.broadcastToRoom(sender.BuildingID, out, sender.ClientID)
}

func commitErrorText(err error) string {
	switch {
	case errors.Is(err, building.ErrNotFound):
		return "floor not found"
	case errors.Is(err, building.ErrForbidden), errors.Is(err, building.ErrNotMember):
		return "read-only access"
	default:
		return "could not save position"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
