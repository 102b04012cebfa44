package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/wettergames/cityguess/internal/game"
)

// AskRequest is the request body for POST /api/game/ask.
type AskRequest struct {
	Attribute string     `json:"attribute"`
	Operator  string     `json:"operator"`
	Value     string     `json:"value"`
	Units     game.Units `json:"units"`
}

// AskResponse pairs the answer with the updated question accounting.
type AskResponse struct {
	Answer         game.Answer      `json:"answer"`
	QuestionsAsked int              `json:"questionsAsked"`
	QuestionsLeft  int              `json:"questionsLeft"`
	Blocked        []game.Attribute `json:"blockedAttributes,omitempty"`
}

// FlipRequest is the request body for POST /api/game/flip.
type FlipRequest struct {
	CandidateID string `json:"candidateId"`
}

func handleAsk(store Store, sessions *SessionManager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req AskRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessions.Get(player.ID)
		ans, err := sess.Ask(game.Question{
			Attribute: game.Attribute(req.Attribute),
			Operator:  game.Operator(req.Operator),
			RawValue:  req.Value,
			Units:     req.Units,
		})
		if err != nil {
			switch {
			case errors.Is(err, game.ErrNotPlaying):
				writeError(w, http.StatusConflict, "no round in progress")
			case errors.Is(err, game.ErrUnknownAttribute),
				errors.Is(err, game.ErrUnknownOperator),
				errors.Is(err, game.ErrBadValue):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, game.ErrAttributeBlocked),
				errors.Is(err, game.ErrBudgetExhausted):
				writeError(w, http.StatusConflict, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		result := ans.Result
		broker.Publish(player.ID, SSEEvent{
			Type:     eventAnswer,
			Question: ans.Question,
			Result:   &result,
		})

		snap := sess.Snapshot()
		writeJSON(w, http.StatusOK, AskResponse{
			Answer:         ans,
			QuestionsAsked: snap.QuestionsAsked,
			QuestionsLeft:  snap.QuestionsLeft,
			Blocked:        snap.Blocked,
		})
	}
}

func handleFlip(store Store, sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req FlipRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessions.Get(player.ID)
		if err := sess.Eliminate(req.CandidateID); err != nil {
			switch {
			case errors.Is(err, game.ErrNotPlaying):
				writeError(w, http.StatusConflict, "no round in progress")
			case errors.Is(err, game.ErrUnknownCandidate):
				writeError(w, http.StatusBadRequest, "unknown candidate")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleGuess(store Store, sessions *SessionManager, broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		sess := sessions.Get(player.ID)
		out, err := sess.Guess(r.Context())
		if out == nil {
			// The round is still live; the countdown keeps running.
			switch {
			case errors.Is(err, game.ErrNotPlaying):
				writeError(w, http.StatusConflict, "no round in progress")
			case errors.Is(err, game.ErrGuessNotReady):
				writeError(w, http.StatusConflict, "exactly one candidate must remain standing")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		sessions.StopCountdown(player.ID)
		if err != nil {
			// The round ended; a failed submission does not undo the outcome.
			logger.Error("score submission failed", "player", player.ID, "outcome", out.ID, "error", err)
		}

		broker.Publish(player.ID, SSEEvent{
			Type:  eventRoundEnd,
			State: string(sess.State()),
			Score: out.Score,
		})
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
