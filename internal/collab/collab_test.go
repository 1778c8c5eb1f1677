package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

type fakeSessions map[string]*auth.Session // token -> session

func (f fakeSessions) ValidateToken(token string) (*auth.Session, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, errors.New("bad token")
}

func (f fakeSessions) GetUser(_ context.Context, userID string) (*auth.User, error) {
	return &auth.User{ID: userID, DisplayName: strings.ToUpper(userID)}, nil
}

type fakeBuildings map[string]string // userID -> role in bld_1

func (f fakeBuildings) Get(_ context.Context, actor *auth.Session, id string) (*building.Building, error) {
	if id != "bld_1" {
		return nil, building.ErrNotFound
	}
	role, ok := f[actor.UserID]
	if !ok {
		return nil, building.ErrNotMember
	}
	return &building.Building{ID: id, Role: role}, nil
}

type commit struct {
	userID, floorID string
	pos             document.Position
}

type fakeStore struct {
	mu      sync.Mutex
	commits []commit
}

func (f *fakeStore) SetFloorPosition(_ context.Context, actor *auth.Session, _, floorID string, pos document.Position) error {
	if floorID == "missing" {
		return building.ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, commit{actor.UserID, floorID, pos})
	return nil
}

type testServer struct {
	hub   *Hub
	store *fakeStore
	url   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := &fakeStore{}
	hub := NewHub(store)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	sessions := fakeSessions{
		"tok-owner":  {UserID: "owner"},
		"tok-editor": {UserID: "editor"},
		"tok-viewer": {UserID: "viewer"},
		"tok-other":  {UserID: "other"},
	}
	buildings := fakeBuildings{"owner": "owner", "editor": "editor", "viewer": "viewer"}

	router := mux.NewRouter()
	NewHandler(hub, sessions, buildings, nil).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{hub: hub, store: store, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (s *testServer) dial(t *testing.T, building, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.Dial(ctx, s.url+"/ws/buildings/"+building+"?token="+token, nil)
}

func (s *testServer) join(t *testing.T, token string) (*websocket.Conn, WelcomePayload) {
	t.Helper()
	conn, _, err := s.dial(t, "bld_1", token)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	var welcome WelcomePayload
	readUntil(t, conn, TypeWelcome, &welcome)
	return conn, welcome
}

// readUntil skips messages until one of msgType arrives and decodes its
// payload into out.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, out any) *Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg Message
		require.NoError(t, wsjson.Read(ctx, conn, &msg), "waiting for %s", msgType)
		if msg.Type != msgType {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(msg.Payload, out))
		}
		return &msg
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Message{Type: msgType, Payload: data}))
}

func TestRoomFlow(t *testing.T) {
	s := newTestServer(t)

	owner, welcome := s.join(t, "tok-owner")
	assert.Equal(t, "owner", welcome.Role)
	assert.Empty(t, welcome.Drafts)

	viewer, viewerWelcome := s.join(t, "tok-viewer")
	assert.Equal(t, "viewer", viewerWelcome.Role)

	var joined PresenceJoinPayload
	readUntil(t, owner, TypePresenceJoin, &joined)
	assert.Equal(t, viewerWelcome.ClientID, joined.ClientID)
	assert.Equal(t, "VIEWER", joined.DisplayName)

	t.Run("presence is relayed", func(t *testing.T) {
		send(t, owner, TypePresenceUpdate, PresencePayload{FocusedFloor: "ground"})

		var p PresencePayload
		msg := readUntil(t, viewer, TypePresenceUpdate, &p)
		assert.Equal(t, "ground", p.FocusedFloor)
		assert.Equal(t, "OWNER", p.DisplayName)
		assert.Equal(t, welcome.ClientID, msg.ClientID)
	})

	t.Run("drafts are relayed", func(t *testing.T) {
		send(t, owner, TypeFloorPosition, FloorPositionPayload{FloorID: "ground", Position: document.Position{X: 1, Z: 2}})

		var p FloorPositionPayload
		readUntil(t, viewer, TypeFloorPosition, &p)
		assert.Equal(t, document.Position{X: 1, Z: 2}, p.Position)
		assert.False(t, p.Commit)
	})

	// The editor stays connected for the rest of the room's life.
	editor, editorWelcome := s.join(t, "tok-editor")
	require.Len(t, editorWelcome.Drafts, 1)
	assert.Equal(t, "ground", editorWelcome.Drafts[0].FloorID)
	assert.Equal(t, document.Position{X: 1, Z: 2}, editorWelcome.Drafts[0].Position)

	var state PresenceStatePayload
	readUntil(t, editor, TypePresenceState, &state)
	assert.Len(t, state.Presences, 2)
	assert.Equal(t, map[string]int{"ground": 1}, state.Floors)

	t.Run("commit stores the position", func(t *testing.T) {
		send(t, owner, TypeFloorPosition, FloorPositionPayload{FloorID: "ground", Position: document.Position{X: 3, Z: 4}, Commit: true})

		var p FloorPositionPayload
		readUntil(t, viewer, TypeFloorPosition, &p)
		assert.True(t, p.Commit)

		s.store.mu.Lock()
		assert.Equal(t, []commit{{"owner", "ground", document.Position{X: 3, Z: 4}}}, s.store.commits)
		s.store.mu.Unlock()
		assert.Empty(t, s.hub.room("bld_1").drafts.All())
	})

	t.Run("commit failures go back to the sender", func(t *testing.T) {
		send(t, owner, TypeFloorPosition, FloorPositionPayload{FloorID: "missing", Commit: true})

		var e ErrorPayload
		readUntil(t, owner, TypeError, &e)
		assert.Equal(t, "floor not found", e.Message)
	})

	t.Run("viewers cannot move floors", func(t *testing.T) {
		send(t, viewer, TypeFloorPosition, FloorPositionPayload{FloorID: "ground"})

		var e ErrorPayload
		readUntil(t, viewer, TypeError, &e)
		assert.Equal(t, "read-only access", e.Message)
	})

	t.Run("invalidate reaches everyone", func(t *testing.T) {
		s.hub.Invalidate("bld_1", 7)

		for _, conn := range []*websocket.Conn{owner, viewer, editor} {
			var p ModelInvalidatePayload
			readUntil(t, conn, TypeModelInvalidate, &p)
			assert.Equal(t, int64(7), p.Revision)
		}
	})

	t.Run("leaving reports abandoned drafts", func(t *testing.T) {
		send(t, owner, TypeFloorPosition, FloorPositionPayload{FloorID: "upper", Position: document.Position{X: 5}})
		readUntil(t, viewer, TypeFloorPosition, nil)

		owner.Close(websocket.StatusNormalClosure, "")

		var left PresenceLeavePayload
		readUntil(t, viewer, TypePresenceLeave, &left)
		assert.Equal(t, welcome.ClientID, left.ClientID)
		assert.Equal(t, []string{"upper"}, left.AbandonedFloors)

		readUntil(t, editor, TypePresenceLeave, &left)
		assert.Equal(t, welcome.ClientID, left.ClientID)
		assert.Eventually(t, func() bool { return s.hub.ClientCount("bld_1") == 2 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestUnknownMessageType(t *testing.T) {
	s := newTestServer(t)
	conn, _ := s.join(t, "tok-editor")

	send(t, conn, "op.submit", map[string]string{})

	var e ErrorPayload
	readUntil(t, conn, TypeError, &e)
	assert.Contains(t, e.Message, "op.submit")
}

func TestPresenceUpdateRejectsBadFloor(t *testing.T) {
	s := newTestServer(t)
	conn, _ := s.join(t, "tok-viewer")

	send(t, conn, TypePresenceUpdate, PresencePayload{FocusedFloor: "ground floor"})

	var e ErrorPayload
	readUntil(t, conn, TypeError, &e)
	assert.Contains(t, e.Message, "invalid presence.update payload")
}

func TestPresenceManager(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("c1", PresencePayload{FocusedFloor: "ground", DisplayName: "A"})
	pm.Update("c2", PresencePayload{FocusedFloor: "ground", DisplayName: "B"})
	pm.Update("c3", PresencePayload{FocusedFloor: "upper", DisplayName: "C"})
	pm.Update("c4", PresencePayload{DisplayName: "D"})

	assert.Equal(t, map[string]int{"ground": 2, "upper": 1}, pm.FloorCounts())

	pm.Update("c2", PresencePayload{FocusedFloor: "upper", DisplayName: "B"})
	pm.Remove("c3")
	assert.Equal(t, map[string]int{"ground": 1, "upper": 1}, pm.FloorCounts())

	all := pm.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, "upper", all["c2"].FocusedFloor)
	assert.Empty(t, all["c4"].FocusedFloor)

	p := PresencePayload{FocusedFloor: "  upper "}
	require.NoError(t, p.validate())
	assert.Equal(t, "upper", p.FocusedFloor)
	assert.Error(t, (&PresencePayload{FocusedFloor: strings.Repeat("f", 65)}).validate())
	assert.Error(t, (&PresencePayload{FocusedFloor: "a\tb"}).validate())
}

func TestHandshakeRejections(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		building string
		token    string
		status   int
	}{
		{"missing token", "bld_1", "", http.StatusUnauthorized},
		{"bad token", "bld_1", "nope", http.StatusUnauthorized},
		{"not a member", "bld_1", "tok-other", http.StatusForbidden},
		{"unknown building", "bld_2", "tok-owner", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := s.dial(t, tt.building, tt.token)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDraftSet(t *testing.T) {
	d := NewDraftSet()
	d.Set("a", FloorPositionPayload{FloorID: "2", Commit: true})
	d.Set("b", FloorPositionPayload{FloorID: "1"})
	d.Set("a", FloorPositionPayload{FloorID: "3"})

	all := d.All()
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].FloorID)
	assert.False(t, all[1].Commit)

	assert.Equal(t, []string{"2", "3"}, d.RemoveClient("a"))
	assert.Len(t, d.All(), 1)

	d.Clear()
	assert.Empty(t, d.All())
}

func TestHubStopped(t *testing.T) {
	hub := NewHub(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := NewClient(hub, nil, &auth.Session{UserID: "owner"}, "OWNER", "bld_1", "c-1", "owner")
	done := make(chan bool, 1)
	go func() {
		ok := hub.Register(client)
		hub.Unregister(client)
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("register blocked after the hub stopped")
	}
	assert.Zero(t, hub.ClientCount("bld_1"))
}
