package collab

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode"
)

const maxFloorIDLen = 64

// validate normalises a presence sent by a client. An empty focused floor
// means the client is looking at the whole building.
func (p *PresencePayload) validate() error {
	p.FocusedFloor = strings.TrimSpace(p.FocusedFloor)
	if len(p.FocusedFloor) > maxFloorIDLen {
		return errors.New("focused floor id too long")
	}
	if strings.ContainsFunc(p.FocusedFloor, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return errors.New("focused floor id contains whitespace")
	}
	return nil
}

// PresenceManager tracks which floor each connected client is looking at.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = &v
	}
	return result
}

// FloorCounts returns how many clients are focused on each floor. Clients
// without a focused floor are not counted.
func (pm *PresenceManager) FloorCounts() map[string]int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range pm.presences {
		if p.FocusedFloor != "" {
			counts[p.FocusedFloor]++
		}
	}
	return counts
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{
		Presences: pm.GetAll(),
		Floors:    pm.FloorCounts(),
	})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
