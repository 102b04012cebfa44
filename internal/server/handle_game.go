package server

import (
	"errors"
	"net/http"

	"github.com/wettergames/cityguess/internal/game"
)

func handleGameStart(store Store, sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		sess := sessions.Get(player.ID)
		if sess.State().Terminal() {
			// A finished round rolls back to intro before the next start.
			sess.Restart()
		}

		if err := sess.Start(r.Context()); err != nil {
			switch {
			case errors.Is(err, game.ErrRoundInProgress):
				writeError(w, http.StatusConflict, "a round is already in progress")
			case errors.Is(err, game.ErrDailyCapReached):
				writeError(w, http.StatusConflict, "daily play limit reached")
			case errors.Is(err, game.ErrNameRequired):
				writeError(w, http.StatusPreconditionFailed, "display name required")
			case errors.Is(err, game.ErrInsufficientCredits):
				writeError(w, http.StatusPaymentRequired, "insufficient credits")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusConflict, "no round published for today")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		// Start returns nil without entering playing when the player exited
		// mid-fetch; only a live round gets a countdown.
		if sess.State() == game.StatePlaying {
			sessions.StartCountdown(player.ID, sess)
		}

		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleGameState(store Store, sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		writeJSON(w, http.StatusOK, sessions.Get(player.ID).Snapshot())
	}
}

func handleGameExit(store Store, sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		sessions.StopCountdown(player.ID)
		sess := sessions.Get(player.ID)
		sess.Exit()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
