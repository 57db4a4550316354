package server

import (
	"context"
	"net/http"

	"fake-artist/internal/game"

	"github.com/go-chi/chi/v5"
)

type createRoomRequest struct {
	MaxRounds int `json:"maxRounds"`
	TimeLimit int `json:"timeLimit"`
}

type roomSummary struct {
	Code      string      `json:"code"`
	Status    game.Status `json:"status"`
	Locked    bool        `json:"locked"`
	Players   int         `json:"players"`
	MaxRounds int         `json:"maxRounds"`
	TimeLimit int         `json:"timeLimit"`
	Round     int         `json:"round"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CommandTimeout)
	defer cancel()
	code, err := s.dir.Create(ctx, game.CreateRoom{MaxRounds: req.MaxRounds, TimeLimit: req.TimeLimit})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) handleFindRoom(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CommandTimeout)
	defer cancel()
	var summary roomSummary
	err := s.dir.View(ctx, chi.URLParam(r, "code"), func(session *game.Session) {
		summary = roomSummary{
			Code:      session.Code,
			Status:    session.Status,
			Locked:    session.Locked,
			Players:   session.Players.Len(),
			MaxRounds: session.MaxRounds,
			TimeLimit: session.TimeLimit,
			Round:     session.Turns.Round,
		}
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
