package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wettergames/cityguess/internal/game"
	"github.com/wettergames/cityguess/internal/weather"
)

// PublishRoundRequest is the request body for POST /api/admin/rounds. The
// server fetches each city's stats from the weather proxy; the target is
// named by city ID and stored as its stats tuple.
type PublishRoundRequest struct {
	Day          string         `json:"day"`
	Cities       []weather.City `json:"cities"`
	TargetCityID string         `json:"targetCityId"`
}

// PublishRoundResponse confirms the published round.
type PublishRoundResponse struct {
	Day        string `json:"day"`
	Candidates int    `json:"candidates"`
}

// RoundInfoResponse is the admin view of a stored round, target included.
type RoundInfoResponse struct {
	Day        string           `json:"day"`
	Candidates []game.Candidate `json:"candidates"`
	Target     game.Candidate   `json:"target"`
}

func handleAdminPublishRound(store Store, wc *weather.Client, rounds *RoundCache, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PublishRoundRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Day == "" {
			writeError(w, http.StatusBadRequest, "day is required")
			return
		}
		if len(req.Cities) != game.RoundSize {
			writeError(w, http.StatusUnprocessableEntity, "a round needs exactly 24 cities")
			return
		}

		candidates, err := wc.Candidates(r.Context(), req.Day, req.Cities)
		if err != nil {
			logger.Error("fetching round candidates failed", "day", req.Day, "error", err)
			writeError(w, http.StatusBadGateway, "weather proxy unavailable")
			return
		}

		var target *game.Stats
		for _, c := range candidates {
			if c.ID == req.TargetCityID {
				stats := c.Stats
				target = &stats
				break
			}
		}
		if target == nil {
			writeError(w, http.StatusUnprocessableEntity, "target city is not in the round")
			return
		}

		// Reject rounds whose target stats would not identify exactly one
		// candidate before they ever reach a player.
		if _, err := game.NewRound(req.Day, candidates, *target); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		if err := store.PublishRound(r.Context(), req.Day, candidates, *target); err != nil {
			logger.Error("publishing round failed", "day", req.Day, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if rounds != nil {
			rounds.Invalidate(r.Context(), req.Day)
		}

		writeJSON(w, http.StatusCreated, PublishRoundResponse{
			Day:        req.Day,
			Candidates: len(candidates),
		})
	}
}

func handleAdminGetRound(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := chi.URLParam(r, "day")
		if day == "today" {
			day = time.Now().UTC().Format("2006-01-02")
		}

		round, err := store.RoundByDay(r.Context(), day)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no round for that day")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, RoundInfoResponse{
			Day:        round.Date,
			Candidates: round.Candidates,
			Target:     round.Target(),
		})
	}
}
