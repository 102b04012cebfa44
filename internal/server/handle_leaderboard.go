package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// handleLeaderboard serves one page of a ranking window. Window scalars come
// from query parameters; omitted scalars default to the current date. The
// cursor-less first page of each partition is served from redis when warm.
func handleLeaderboard(store Store, cache *LeaderboardCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := game.WindowQuery{Window: game.Window(r.URL.Query().Get("window"))}
		if q.Window == "" {
			q.Window = game.WindowAllTime
		}
		var badParam string
		for _, p := range []struct {
			name string
			dst  *int
		}{
			{"year", &q.Year},
			{"month", &q.Month},
			{"quarter", &q.Quarter},
		} {
			raw := r.URL.Query().Get(p.name)
			if raw == "" {
				continue
			}
			v, err := strconv.Atoi(raw)
			if err != nil {
				badParam = p.name
				break
			}
			*p.dst = v
		}
		if badParam != "" {
			writeError(w, http.StatusBadRequest, badParam+" must be an integer")
			return
		}

		partition, err := q.PartitionKey(time.Now().UTC())
		if err != nil {
			if errors.Is(err, game.ErrUnknownWindow) {
				writeError(w, http.StatusBadRequest, "unknown leaderboard window")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cursor := r.URL.Query().Get("cursor")
		if cursor == "" {
			if page, ok := cache.Get(r.Context(), partition); ok {
				writeJSON(w, http.StatusOK, page)
				return
			}
		}

		page, err := store.LeaderboardPage(r.Context(), partition, cursor, game.LeaderboardPageSize)
		if err != nil {
			if errors.Is(err, errBadCursor) {
				writeError(w, http.StatusBadRequest, "malformed cursor")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if cursor == "" {
			cache.Put(r.Context(), partition, page)
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// handleHistory serves one page of the caller's own past outcomes.
func handleHistory(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		cursor := r.URL.Query().Get("cursor")
		page, err := store.HistoryPage(r.Context(), player.ID, cursor, game.HistoryPageSize)
		if err != nil {
			if errors.Is(err, errBadCursor) {
				writeError(w, http.StatusBadRequest, "malformed cursor")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}
