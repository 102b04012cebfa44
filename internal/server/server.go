package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/wettergames/cityguess/internal/weather"
)

// Options carries the server's collaborators and settings.
type Options struct {
	Addr        string
	Logger      *slog.Logger
	DB          *sql.DB
	Redis       *redis.Client
	Weather     *weather.Client
	ScoreSecret string

	// ScoreSinkURL, when set, routes finished rounds to an external ingest
	// deployment instead of the local store.
	ScoreSinkURL string
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger

	db          *sql.DB
	rdb         *redis.Client
	store       Store
	weather     *weather.Client
	broker      *Broker
	sessions    *SessionManager
	boardCache  *LeaderboardCache
	roundCache  *RoundCache
	scoreSecret string
}

func New(opts Options) *Server {
	store := NewSQLiteStore(opts.DB)
	boardCache := NewLeaderboardCache(opts.Redis, opts.Logger)
	roundCache := NewRoundCache(opts.Redis, store, opts.Logger)
	broker := NewBroker()
	sink := newScoreSink(opts.ScoreSinkURL, opts.ScoreSecret, store, boardCache)

	s := &Server{
		logger:      opts.Logger,
		db:          opts.DB,
		rdb:         opts.Redis,
		store:       store,
		weather:     opts.Weather,
		broker:      broker,
		sessions:    NewSessionManager(store, roundCache, sink, broker, opts.Logger),
		boardCache:  boardCache,
		roundCache:  roundCache,
		scoreSecret: opts.ScoreSecret,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	s.addRoutes(r)

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Store exposes the backing store, mainly for seeding.
func (s *Server) Store() Store { return s.store }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
