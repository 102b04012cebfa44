package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// SessionManager owns the active round session per player and the countdown
// goroutine that drives its timer. Sessions are created lazily and reused
// across rounds; the engine itself serializes all transitions.
type SessionManager struct {
	store  Store
	rounds roundLoader
	sink   game.ScoreSink
	broker *Broker
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*game.Session
	stops    map[string]chan struct{}
}

// roundLoader is the slice of Store the round fetch needs; the redis round
// cache satisfies it too.
type roundLoader interface {
	RoundByDay(ctx context.Context, day string) (*game.Round, error)
}

// NewSessionManager wires sessions to the store. rounds may be nil to load
// rounds straight from the store without a cache in front.
func NewSessionManager(store Store, rounds roundLoader, sink game.ScoreSink, broker *Broker, logger *slog.Logger) *SessionManager {
	if rounds == nil {
		rounds = store
	}
	return &SessionManager{
		store:    store,
		rounds:   rounds,
		sink:     sink,
		broker:   broker,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*game.Session),
		stops:    make(map[string]chan struct{}),
	}
}

// Get returns the player's session, creating one on first use.
func (m *SessionManager) Get(playerID string) *game.Session {
	m.mu.RLock()
	sess, ok := m.sessions[playerID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if sess, ok := m.sessions[playerID]; ok {
		return sess
	}

	deps := game.Deps{
		Rounds: storeRounds{rounds: m.rounds, now: m.now},
		Ledger: storeLedger{store: m.store},
		Plays:  storePlays{store: m.store},
		Names:  storeNames{store: m.store},
		Scores: m.sink,
	}
	sess = game.NewSession(playerID, deps, m.now)
	m.sessions[playerID] = sess
	return sess
}

// StartCountdown launches the one-second ticker for a freshly started
// round, publishing ticks and the forced round end over SSE.
func (m *SessionManager) StartCountdown(playerID string, sess *game.Session) {
	stop := make(chan struct{})

	m.mu.Lock()
	if old, ok := m.stops[playerID]; ok {
		close(old)
	}
	m.stops[playerID] = stop
	m.mu.Unlock()

	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				remaining, ended, err := sess.Tick(context.Background())
				if err != nil {
					m.logger.Error("round timeout processing failed", "player", playerID, "error", err)
				}
				if ended {
					out := sess.Outcome()
					m.broker.Publish(playerID, SSEEvent{
						Type:  eventRoundEnd,
						State: string(sess.State()),
						Score: out.Score,
					})
					return
				}
				if sess.State() != game.StatePlaying {
					// The round ended through a guess or an exit.
					return
				}
				m.broker.Publish(playerID, SSEEvent{Type: eventTick, SecondsRemaining: remaining})
			}
		}
	}()
}

// StopCountdown halts the player's ticker, if any.
func (m *SessionManager) StopCountdown(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stop, ok := m.stops[playerID]; ok {
		close(stop)
		delete(m.stops, playerID)
	}
}

// Store-backed engine collaborators.

type storeRounds struct {
	rounds roundLoader
	now    func() time.Time
}

func (s storeRounds) FetchRound(ctx context.Context) (*game.Round, error) {
	return s.rounds.RoundByDay(ctx, s.now().Format("2006-01-02"))
}

type storeLedger struct{ store Store }

func (s storeLedger) Balance(ctx context.Context, playerID string) (int, error) {
	return s.store.Balance(ctx, playerID)
}

func (s storeLedger) Consume(ctx context.Context, playerID, kind string, amount int) error {
	err := s.store.ConsumeCredits(ctx, playerID, amount)
	if errors.Is(err, errInsufficientCredits) {
		return game.ErrInsufficientCredits
	}
	return err
}

type storePlays struct{ store Store }

func (s storePlays) DailyCount(ctx context.Context, playerID, date string) (int, error) {
	return s.store.DailyCount(ctx, playerID, date)
}

func (s storePlays) IncrementDaily(ctx context.Context, playerID, date string) error {
	return s.store.IncrementDaily(ctx, playerID, date)
}

type storeNames struct{ store Store }

func (s storeNames) Name(ctx context.Context, playerID string) (string, error) {
	name, err := s.store.PlayerName(ctx, playerID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return name, err
}

func (s storeNames) SetName(ctx context.Context, playerID, name string) error {
	return s.store.SetPlayerName(ctx, playerID, name)
}
