package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
	"learnhub-service/internal/infra/memory"
	"learnhub-service/internal/logging"
)

func TestWebSocketLeaderboardFlow(t *testing.T) {
	store := memory.NewStore()
	log := logging.NewNop()
	hub := app.NewHub(app.NewLeaderboardService(store, 10), log)
	wsHandler := NewWSHandler(hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/leaderboard", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The current board arrives first.
	typ, lb := readNext(t, conn)
	if typ != "leaderboard" || len(lb.Entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %s %+v", typ, lb)
	}

	// A new profile shows up after a change signal.
	user := domain.User{Username: "alice", PasswordHash: "x", CreatedAt: time.Now()}
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.CreateProfile(context.Background(), &domain.Profile{UserID: user.ID, Username: user.Username, Role: domain.RoleFree}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	waitFor(t, func() bool { return hub.Subscribers() == 1 })
	hub.LeaderboardChanged(context.Background())

	typ, lb = readNext(t, conn)
	if typ != "leaderboard" || len(lb.Entries) != 1 || lb.Entries[0].Profile.Username != "alice" {
		t.Fatalf("expected alice on the board, got %s %+v", typ, lb)
	}

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if typ, _ := readNext(t, conn); typ != "pong" {
		t.Fatalf("expected pong, got %s", typ)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Subscribers() == 0 })
}

func readNext(t *testing.T, conn *websocket.Conn) (string, domain.Leaderboard) {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
