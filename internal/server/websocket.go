package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"fake-artist/internal/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendQueueSize  = 256
)

type inboundFrame struct {
	Command string          `json:"command"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	log       zerolog.Logger
	closeOnce sync.Once

	// room is the last room this connection joined. Only the read loop
	// touches it.
	room string
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn().Msg("send queue full, closing connection")
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	id := uuid.NewString()
	c := &client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.ClientCommandRate), s.cfg.ClientCommandBurst),
		log:     s.log.With().Str("client_id", id).Logger(),
	}
	s.hub.register(c)
	c.log.Debug().Str("remote", r.RemoteAddr).Msg("ws connected")
	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.unregister(c)
		c.close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("ws disconnected")
			}
			return
		}
		s.handleFrame(c, data)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleFrame(c *client, data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil || in.Command == "" {
		s.hub.ToClient(c.id, game.Failure{Name: "command_failed", Code: game.CodeInvalidState, Message: "malformed frame"})
		return
	}
	if !c.limiter.Allow() {
		s.hub.ToClient(c.id, game.Failure{Name: "command_failed", Code: game.CodeResourceExhausted, Message: "too many commands"})
		return
	}
	cmd, err := game.DecodeCommand(in.Command, in.Payload)
	if err != nil {
		s.hub.ToClient(c.id, game.Failure{Name: "command_failed", Code: game.CodeOf(err), Message: err.Error()})
		return
	}
	room := in.Room
	if room == "" {
		room = c.room
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	res := s.dir.Dispatch(ctx, c.id, room, cmd)
	cancel()
	if res.Err != nil {
		c.log.Debug().Err(res.Err).Str("command", cmd.Name()).Msg("command failed")
		return
	}
	for _, ev := range res.Events {
		switch ev := ev.(type) {
		case game.RoomJoined:
			c.room = ev.Code
		case game.RoomRejoined:
			c.room = ev.Code
		}
	}
	if _, left := cmd.(game.LeaveRoom); left {
		c.room = ""
	}
}
