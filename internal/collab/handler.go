package collab

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
)

// Sessions validates socket credentials and resolves display names.
type Sessions interface {
	ValidateToken(token string) (*auth.Session, error)
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

// Buildings checks that the caller may see a building and reports its role.
type Buildings interface {
	Get(ctx context.Context, actor *auth.Session, buildingID string) (*building.Building, error)
}

type Handler struct {
	hub            *Hub
	sessions       Sessions
	buildings      Buildings
	originPatterns []string
}

// NewHandler builds the socket endpoint. origins are full origins such as
// http://localhost:5173; an empty list only allows same-host requests.
func NewHandler(hub *Hub, sessions Sessions, buildings Buildings, origins []string) *Handler {
	var patterns []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return &Handler{hub: hub, sessions: sessions, buildings: buildings, originPatterns: patterns}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/ws/buildings/{buildingId}", h.ServeWS)
}

// ServeWS upgrades the request and joins the building's room. Browsers pass
// the session token as ?token= or send the session cookie.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		if c, err := r.Cookie(auth.SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	b, err := h.buildings.Get(r.Context(), session, buildingID)
	switch {
	case errors.Is(err, building.ErrNotFound):
		http.Error(w, "building not found", http.StatusNotFound)
		return
	case errors.Is(err, building.ErrNotMember), errors.Is(err, building.ErrForbidden):
		http.Error(w, "no access to building", http.StatusForbidden)
		return
	case err != nil:
		slog.Error("websocket building lookup", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	displayName := session.Email
	if user, err := h.sessions.GetUser(r.Context(), session.UserID); err == nil && user.DisplayName != "" {
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, session, displayName, buildingID, clientID, b.Role)

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
