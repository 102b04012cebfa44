package server

import (
	"context"
	"errors"

	"github.com/wettergames/cityguess/internal/game"
)

// Store errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound            = errors.New("not found")
	errNoSession           = errors.New("no valid session")
	errNoAdminSession      = errors.New("no valid admin session")
	errInsufficientCredits = errors.New("insufficient credits")
)

// Player is one registered player.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

// OutcomeRecord is a verified score submission as persisted.
type OutcomeRecord struct {
	ID          string
	PlayerID    string
	RoundDay    string
	Correct     bool
	Score       int
	Questions   int
	SecondsLeft int
	CompletedAt string
}

type Store interface {
	CreatePlayer(ctx context.Context, name string) (Player, string, error)
	PlayerFromToken(ctx context.Context, token string) (Player, error)
	PlayerName(ctx context.Context, playerID string) (string, error)
	SetPlayerName(ctx context.Context, playerID, name string) error

	Balance(ctx context.Context, playerID string) (int, error)
	ConsumeCredits(ctx context.Context, playerID string, amount int) error

	DailyCount(ctx context.Context, playerID, day string) (int, error)
	IncrementDaily(ctx context.Context, playerID, day string) error

	PublishRound(ctx context.Context, day string, candidates []game.Candidate, target game.Stats) error
	RoundByDay(ctx context.Context, day string) (*game.Round, error)

	RecordOutcome(ctx context.Context, rec OutcomeRecord, partitions []string, entry game.Entry) error
	LeaderboardPage(ctx context.Context, partitionKey, cursor string, limit int) (game.EntryPage, error)
	HistoryPage(ctx context.Context, playerID, cursor string, limit int) (game.HistoryPage, error)

	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
}
