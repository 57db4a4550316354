package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"fake-artist/internal/config"
	"fake-artist/internal/game"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, g *testGateway, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, g.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	g := newTestGateway(t, config.Default())
	resp, err := g.ts.Client().Get(g.ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndFindRoom(t *testing.T) {
	g := newTestGateway(t, config.Default())

	resp, body := doRequest(t, g, http.MethodPost, "/api/rooms", map[string]int{"maxRounds": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	code := body["code"].(string)
	assert.Len(t, code, 5)

	resp, body = doRequest(t, g, http.MethodGet, "/api/rooms/"+code, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, code, body["code"])
	assert.Equal(t, "open", body["status"])
	assert.EqualValues(t, 3, body["maxRounds"])
	assert.EqualValues(t, 0, body["players"])
}

func TestCreateRoomWithoutBodyUsesDefaults(t *testing.T) {
	g := newTestGateway(t, config.Default())
	resp, body := doRequest(t, g, http.MethodPost, "/api/rooms", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, summary := doRequest(t, g, http.MethodGet, "/api/rooms/"+body["code"].(string), nil)
	assert.EqualValues(t, 2, summary["maxRounds"])
}

func TestCreateRoomRejectsBadInput(t *testing.T) {
	g := newTestGateway(t, config.Default())
	resp, _ := doRequest(t, g, http.MethodPost, "/api/rooms", map[string]int{"maxRounds": -2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, g, http.MethodPost, "/api/rooms", map[string]string{"unknown": "field"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFindUnknownRoom(t *testing.T) {
	g := newTestGateway(t, config.Default())
	resp, body := doRequest(t, g, http.MethodGet, "/api/rooms/NOPE1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(game.CodeConflict))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(game.CodeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(game.CodeInternal))
}

func TestCheckOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"https://play.example"}
	s := New(nil, NewHub(zerolog.Nop()), cfg, zerolog.Nop())

	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, s.checkOrigin(req))
	req.Header.Set("Origin", "https://play.example")
	assert.True(t, s.checkOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.checkOrigin(req))
}
