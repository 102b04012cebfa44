package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// RegisterRequest is the request body for POST /api/players.
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse returns the new player and their session token.
type RegisterResponse struct {
	Player Player `json:"player"`
	Token  string `json:"token"`
}

// NameRequest is the request body for PUT /api/players/name.
type NameRequest struct {
	Name string `json:"name"`
}

func handlePlayerRegister(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name != "" {
			if err := game.ValidateDisplayName(req.Name); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}

		player, token, err := store.CreatePlayer(r.Context(), req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{Player: player, Token: token})
	}
}

// MeResponse is the player's identity plus today's remaining plays.
type MeResponse struct {
	Player
	PlaysRemaining int `json:"playsRemaining"`
}

func handlePlayerMe(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		day := time.Now().Format("2006-01-02")
		count, err := store.DailyCount(r.Context(), player.ID, day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		remaining := game.DailyPlayCap - count
		if remaining < 0 {
			remaining = 0
		}

		writeJSON(w, http.StatusOK, MeResponse{Player: player, PlaysRemaining: remaining})
	}
}

func handlePlayerName(store Store, sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req NameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessions.Get(player.ID)
		if err := sess.RegisterName(r.Context(), req.Name); err != nil {
			switch {
			case errors.Is(err, game.ErrNameLength),
				errors.Is(err, game.ErrNameCharset),
				errors.Is(err, game.ErrNameReserved):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"name": req.Name})
	}
}
