package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func (s *Server) addRoutes(r chi.Router) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityGuess API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(s.logger, s.db, s.rdb))
	r.Get("/ws/echo", handleWSEcho(s.logger))

	// Player registration and identity.
	r.Post("/api/players", handlePlayerRegister(s.store))
	r.Get("/api/players/me", handlePlayerMe(s.store))
	r.Put("/api/players/name", handlePlayerName(s.store, s.sessions))

	// Round lifecycle.
	r.Post("/api/game/start", handleGameStart(s.store, s.sessions))
	r.Get("/api/game/state", handleGameState(s.store, s.sessions))
	r.Post("/api/game/ask", handleAsk(s.store, s.sessions, s.broker))
	r.Post("/api/game/flip", handleFlip(s.store, s.sessions))
	r.Post("/api/game/guess", handleGuess(s.store, s.sessions, s.broker, s.logger))
	r.Post("/api/game/exit", handleGameExit(s.store, s.sessions))
	r.Get("/api/game/events", handleEvents(s.store, s.broker))

	// Scores and rankings.
	r.Post("/api/scores", handleScoreSubmit(s.store, s.boardCache, s.scoreSecret, s.logger))
	r.Get("/api/leaderboard", handleLeaderboard(s.store, s.boardCache))
	r.Get("/api/history", handleHistory(s.store))

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(s.store))
	r.Post("/api/admin/logout", handleAdminLogout(s.store))
	r.Get("/api/admin/me", handleAdminMe(s.store))

	// Admin round publishing.
	r.Route("/api/admin/rounds", func(r chi.Router) {
		r.Use(adminAuthMiddleware(s.store))
		r.Post("/", handleAdminPublishRound(s.store, s.weather, s.roundCache, s.logger))
		r.Get("/{day}", handleAdminGetRound(s.store))
	})
}
