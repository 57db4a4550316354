package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fake-artist/internal/config"
	"fake-artist/internal/game"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

type testGateway struct {
	ts  *httptest.Server
	dir *game.Directory
	hub *Hub
}

func newTestGateway(t *testing.T, cfg config.Config) *testGateway {
	t.Helper()
	log := zerolog.Nop()
	hub := NewHub(log)
	catalog := game.NewStaticCatalog(game.Category{ID: "1", Topic: "Animals", Subject: "Giraffe"})
	dir := game.NewDirectory(catalog, hub, game.Options{Logger: log, CommandTimeout: cfg.CommandTimeout})
	t.Cleanup(dir.Close)
	ts := newTestServer(t, New(dir, hub, cfg, log).Handler())
	t.Cleanup(ts.Close)
	return &testGateway{ts: ts, dir: dir, hub: hub}
}

func (g *testGateway) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(g.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, command, room string, payload any) {
	t.Helper()
	body := map[string]any{"command": command, "room": room}
	if payload != nil {
		body["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(body))
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read websocket frame: %v", err)
	}
	return f
}

// waitForEvent reads frames until one named event arrives and decodes its
// payload into dest.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string, dest any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f := readFrame(t, conn, time.Until(deadline))
		if f.Event != event {
			continue
		}
		if dest != nil {
			require.NoError(t, json.Unmarshal(f.Payload, dest))
		}
		return
	}
	t.Fatalf("timed out waiting for %s", event)
}

func expectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var f frame
	if err := conn.ReadJSON(&f); err == nil {
		t.Fatalf("expected no frame, got %s", f.Event)
	}
}
