package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fake-artist/internal/game"
)

// readJSON decodes an optional JSON body; an empty body leaves dest as is.
func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	code := game.CodeOf(err)
	if code == game.CodeInternal {
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	writeError(w, statusFor(code), err.Error())
}

func statusFor(code game.Code) int {
	switch code {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeConflict:
		return http.StatusConflict
	case game.CodeInvalidState:
		return http.StatusBadRequest
	case game.CodeResourceExhausted:
		return http.StatusTooManyRequests
	case game.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
