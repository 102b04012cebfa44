package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// handleScoreSubmit ingests a signed submission. The token is recomputed
// server-side; a mismatch rejects the submission outright, there is no
// negotiation or retry protocol.
func handleScoreSubmit(store Store, cache *LeaderboardCache, secret string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub game.Submission
		if err := readJSON(r, &sub); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if sub.OutcomeID == "" || sub.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "outcomeId and playerId are required")
			return
		}

		want := game.SubmissionToken(sub.PlayerID, sub.Score, sub.SecondsRemaining, sub.QuestionsAsked, secret)
		if subtle.ConstantTimeCompare([]byte(want), []byte(sub.Token)) != 1 {
			writeError(w, http.StatusUnprocessableEntity, "submission token mismatch")
			return
		}

		if err := ingestSubmission(r.Context(), store, cache, time.Now(), sub); err != nil {
			logger.Error("recording submission failed", "outcome", sub.OutcomeID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"outcomeId": sub.OutcomeID})
	}
}
