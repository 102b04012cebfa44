package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/wettergames/cityguess/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CityGuess API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Guess the City game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/echo
	getWSEcho, _ := r.NewOperationContext(http.MethodGet, "/ws/echo")
	getWSEcho.SetSummary("WebSocket echo")
	getWSEcho.SetDescription("Upgrades to a WebSocket connection that echoes messages back.")
	getWSEcho.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSEcho)

	// POST /api/players
	postPlayers, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	postPlayers.SetSummary("Register player")
	postPlayers.SetDescription("Creates a player, optionally with a display name. Returns a session token.")
	postPlayers.AddReqStructure(RegisterRequest{})
	postPlayers.AddRespStructure(RegisterResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postPlayers)

	// GET /api/players/me
	getMePlayer, _ := r.NewOperationContext(http.MethodGet, "/api/players/me")
	getMePlayer.SetSummary("Current player")
	getMePlayer.SetDescription("Returns the authenticated player. Requires Bearer token.")
	getMePlayer.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMePlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMePlayer)

	// PUT /api/players/name
	putName, _ := r.NewOperationContext(http.MethodPut, "/api/players/name")
	putName.SetSummary("Set display name")
	putName.SetDescription("Validates and stores the player's display name. Requires Bearer token.")
	putName.AddReqStructure(NameRequest{})
	putName.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	putName.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	putName.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putName)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start round")
	postStart.SetDescription("Starts today's round: checks the daily limit, the display name, and the credit balance, then charges the round cost. Requires Bearer token.")
	postStart.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusPreconditionFailed))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusPaymentRequired))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get round state")
	getState.SetDescription("Returns the current round snapshot. Requires Bearer token.")
	getState.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/game/ask
	postAsk, _ := r.NewOperationContext(http.MethodPost, "/api/game/ask")
	postAsk.SetSummary("Ask a question")
	postAsk.SetDescription("Evaluates one attribute question against the hidden target. Requires Bearer token.")
	postAsk.AddReqStructure(AskRequest{})
	postAsk.AddRespStructure(AskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAsk.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAsk.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAsk.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAsk)

	// POST /api/game/flip
	postFlip, _ := r.NewOperationContext(http.MethodPost, "/api/game/flip")
	postFlip.SetSummary("Eliminate a candidate")
	postFlip.SetDescription("Flips one candidate face-down. Requires Bearer token.")
	postFlip.AddReqStructure(FlipRequest{})
	postFlip.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postFlip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postFlip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postFlip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postFlip)

	// POST /api/game/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/game/guess")
	postGuess.SetSummary("Submit final guess")
	postGuess.SetDescription("Submits the sole standing candidate and ends the round. Requires Bearer token.")
	postGuess.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postGuess)

	// POST /api/game/exit
	postExit, _ := r.NewOperationContext(http.MethodPost, "/api/game/exit")
	postExit.SetSummary("Exit round")
	postExit.SetDescription("Abandons the session and returns to the intro state. Requires Bearer token.")
	postExit.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postExit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postExit)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream for countdown ticks and round results. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/scores
	postScores, _ := r.NewOperationContext(http.MethodPost, "/api/scores")
	postScores.SetSummary("Submit score")
	postScores.SetDescription("Ingests a signed score submission. The integrity token is verified server-side.")
	postScores.AddReqStructure(game.Submission{})
	postScores.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	postScores.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postScores.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postScores)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard page")
	getBoard.SetDescription("Returns one page of a ranking window. Query: window, year, month, quarter, cursor.")
	getBoard.AddRespStructure(game.EntryPage{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBoard)

	// GET /api/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/history")
	getHistory.SetSummary("Player history page")
	getHistory.SetDescription("Returns one page of the player's past outcomes. Requires Bearer token.")
	getHistory.AddRespStructure(game.HistoryPage{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getHistory)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// POST /api/admin/rounds
	postRounds, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rounds")
	postRounds.SetSummary("Publish round")
	postRounds.SetDescription("Builds and publishes a day's round from 24 cities and a target. Requires admin_session cookie.")
	postRounds.AddReqStructure(PublishRoundRequest{})
	postRounds.AddRespStructure(PublishRoundResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRounds)

	// GET /api/admin/rounds/{day}
	getRound, _ := r.NewOperationContext(http.MethodGet, "/api/admin/rounds/{day}")
	getRound.SetSummary("Get round")
	getRound.SetDescription("Returns a stored round with its target revealed. Requires admin_session cookie.")
	getRound.AddRespStructure(RoundInfoResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getRound.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getRound.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getRound)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
