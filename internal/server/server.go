package server

import (
	"net/http"
	"slices"
	"time"

	"fake-artist/internal/config"
	"fake-artist/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Server struct {
	dir      *game.Directory
	hub      *Hub
	cfg      config.Config
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func New(dir *game.Directory, hub *Hub, cfg config.Config, log zerolog.Logger) *Server {
	s := &Server{
		dir: dir,
		hub: hub,
		cfg: cfg,
		log: log.With().Str("component", "http").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(middleware.Heartbeat("/healthz"))

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(s.cfg.HTTPRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)))
		r.Post("/api/rooms", s.handleCreateRoom)
		r.Get("/api/rooms/{code}", s.handleFindRoom)
	})
	r.Get("/ws", s.handleWebsocket)
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}
