package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sparkquest/arcade-api/internal/domain/arcade"
	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/middleware"
	jwtpkg "github.com/sparkquest/arcade-api/internal/pkg/jwt"
)

func waitEvent(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("unmarshal ws event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting websocket event")
	}
	return Event{}
}

func newLocalHubWithUsers(userIDs ...uuid.UUID) (*Hub, map[uuid.UUID]*Connection) {
	h := NewHub(nil)
	conns := map[uuid.UUID]*Connection{}
	for _, userID := range userIDs {
		conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}
		conns[userID] = conn
		h.connections[userID] = map[*Connection]bool{conn: true}
	}
	return h, conns
}

func TestNotifierTargetsOwner(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	hub, conns := newLocalHubWithUsers(owner, other)
	n := NewNotifier(hub)

	n.BalanceChanged(context.Background(), owner, 150)

	event := waitEvent(t, conns[owner].Send)
	if event.Type != EventBalanceChanged {
		t.Fatalf("expected %s, got %s", EventBalanceChanged, event.Type)
	}
	data, ok := event.Data.(map[string]any)
	if !ok || data["balance"] != float64(150) {
		t.Fatalf("unexpected payload: %#v", event.Data)
	}
	select {
	case <-conns[other].Send:
		t.Fatal("other user must not receive the event")
	default:
	}
}

func TestNotifierSessionEvents(t *testing.T) {
	userID := uuid.New()
	hub, conns := newLocalHubWithUsers(userID)
	n := NewNotifier(hub)

	sess := arcade.Session{ID: uuid.New(), UserID: userID, GameID: uuid.New(), Status: arcade.StatusActive}
	n.SessionStarted(context.Background(), &arcade.Handle{Session: sess, GameTitle: "Robot Racer"})
	n.SessionExpired(context.Background(), &sess)
	n.CompletionRecorded(context.Background(), userID, uuid.New(), 50)

	if e := waitEvent(t, conns[userID].Send); e.Type != EventSessionStarted {
		t.Fatalf("expected %s, got %s", EventSessionStarted, e.Type)
	}
	if e := waitEvent(t, conns[userID].Send); e.Type != EventSessionExpired {
		t.Fatalf("expected %s, got %s", EventSessionExpired, e.Type)
	}
	if e := waitEvent(t, conns[userID].Send); e.Type != EventCompletionRecorded {
		t.Fatalf("expected %s, got %s", EventCompletionRecorded, e.Type)
	}
}

func TestCatalogChangedReachesEveryone(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	hub, conns := newLocalHubWithUsers(a, b)

	NewNotifier(hub).CatalogChanged(context.Background(), catalog.CollectionGames)

	for _, id := range []uuid.UUID{a, b} {
		if e := waitEvent(t, conns[id].Send); e.Type != EventCatalogChanged {
			t.Fatalf("expected %s, got %s", EventCatalogChanged, e.Type)
		}
	}
}

func TestUserEventFromOtherInstanceIsDelivered(t *testing.T) {
	userID := uuid.New()
	hub, conns := newLocalHubWithUsers(userID)

	payload, _ := json.Marshal(&Event{Type: EventBalanceChanged})
	msg, _ := json.Marshal(userEventMessage{UserID: userID.String(), Payload: payload, SenderInstanceID: "other"})
	hub.handleUserEventPayload(string(msg))
	if e := waitEvent(t, conns[userID].Send); e.Type != EventBalanceChanged {
		t.Fatalf("expected %s, got %s", EventBalanceChanged, e.Type)
	}

	own, _ := json.Marshal(userEventMessage{UserID: userID.String(), Payload: payload, SenderInstanceID: hub.instanceID})
	hub.handleUserEventPayload(string(own))
	select {
	case <-conns[userID].Send:
		t.Fatal("own instance events must be skipped")
	default:
	}
}

func TestSendToUserPublishesForOtherInstances(t *testing.T) {
	userID := uuid.New()
	hub, _ := newLocalHubWithUsers(userID)

	var published []byte
	hub.publishFn = func(_ context.Context, channel string, payload []byte) error {
		if channel != userEventsChannel {
			t.Fatalf("unexpected channel %s", channel)
		}
		published = payload
		return nil
	}

	if err := hub.SendToUser(userID, &Event{Type: EventBalanceChanged}); err != nil {
		t.Fatalf("send: %v", err)
	}
	var msg userEventMessage
	if err := json.Unmarshal(published, &msg); err != nil {
		t.Fatalf("unmarshal published: %v", err)
	}
	if msg.UserID != userID.String() || msg.SenderInstanceID != hub.instanceID {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(nil)
	conn := &Connection{UserID: userID, Send: make(chan []byte, 1)}
	hub.connections[userID] = map[*Connection]bool{conn: true}

	_ = hub.SendToUser(userID, &Event{Type: EventBalanceChanged})
	_ = hub.SendToUser(userID, &Event{Type: EventBalanceChanged})

	if len(conn.Send) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(conn.Send))
	}
}

type staticBalance struct {
	balance int64
	err     error
}

func (s staticBalance) GetBalance(context.Context, uuid.UUID) (int64, error) {
	return s.balance, s.err
}

func TestUnregisterAfterShutdownDoesNotBlock(t *testing.T) {
	userID := uuid.New()
	h, conns := newLocalHubWithUsers(userID)
	h.Shutdown()

	done := make(chan struct{})
	go func() {
		h.Unregister(conns[userID])
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after Shutdown")
	}

	if _, ok := <-conns[userID].Send; ok {
		t.Fatal("expected Send to be closed")
	}
	if h.IsOnline(userID) {
		t.Fatal("connection still registered")
	}
	if h.Register(&Connection{UserID: userID, Send: make(chan []byte, 1)}) {
		t.Fatal("Register must report false after Shutdown")
	}
}

func TestWebSocketPushesBalanceOnConnect(t *testing.T) {
	jwtSvc := jwtpkg.NewService("secret", time.Minute)
	userID := uuid.New()
	token, err := jwtSvc.GenerateAccessToken(userID, jwtpkg.RoleStudent, "")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	h := NewHandler(hub, staticBalance{balance: 75}, nil, nil)
	r := chi.NewRouter()
	r.With(middleware.Auth(jwtSvc)).Get("/ws", h.WebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Type != EventBalanceChanged {
		t.Fatalf("expected %s, got %s", EventBalanceChanged, event.Type)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !hub.IsOnline(userID) {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	NewNotifier(hub).BalanceChanged(context.Background(), userID, 20)
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	data, _ := event.Data.(map[string]any)
	if data["balance"] != float64(20) {
		t.Fatalf("expected pushed balance 20, got %#v", event.Data)
	}
}

func TestWebSocketRejectsAnonymous(t *testing.T) {
	h := NewHandler(NewHub(nil), staticBalance{err: errors.New("unused")}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	h.WebSocket(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
