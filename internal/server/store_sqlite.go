package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wettergames/cityguess/internal/game"
)

// SQLiteStore implements Store on the libSQL connection. Rounds are stored
// as JSONB documents; leaderboard and history rows are relational so the
// ranked range queries can ride their indexes.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// --- players ---

func (s *SQLiteStore) CreatePlayer(ctx context.Context, name string) (Player, string, error) {
	token := newID()
	var p Player
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO players (id, name, token)
		VALUES (?, ?, ?)
		RETURNING id, name, credits
	`, newID(), name, token).Scan(&p.ID, &p.Name, &p.Credits)
	if err != nil {
		return Player{}, "", err
	}
	return p, token, nil
}

func (s *SQLiteStore) PlayerFromToken(ctx context.Context, token string) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, credits FROM players WHERE token = ?
	`, token).Scan(&p.ID, &p.Name, &p.Credits)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, errNoSession
	}
	return p, err
}

func (s *SQLiteStore) PlayerName(ctx context.Context, playerID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM players WHERE id = ?
	`, playerID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

func (s *SQLiteStore) SetPlayerName(ctx context.Context, playerID, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE players SET name = ? WHERE id = ?
	`, name, playerID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- ledger ---

func (s *SQLiteStore) Balance(ctx context.Context, playerID string) (int, error) {
	var credits int
	err := s.db.QueryRowContext(ctx, `
		SELECT credits FROM players WHERE id = ?
	`, playerID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return credits, err
}

// ConsumeCredits deducts atomically; the guard in the WHERE clause makes
// overdraw impossible even with concurrent starts.
func (s *SQLiteStore) ConsumeCredits(ctx context.Context, playerID string, amount int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE players SET credits = credits - ?
		WHERE id = ? AND credits >= ?
	`, amount, playerID, amount)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return errInsufficientCredits
	}
	return nil
}

// --- daily plays ---

func (s *SQLiteStore) DailyCount(ctx context.Context, playerID, day string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM daily_plays WHERE player_id = ? AND day = ?
	`, playerID, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func (s *SQLiteStore) IncrementDaily(ctx context.Context, playerID, day string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_plays (player_id, day, count) VALUES (?, ?, 1)
		ON CONFLICT(player_id, day) DO UPDATE SET count = count + 1
	`, playerID, day)
	return err
}

// --- rounds ---

// roundDoc is the published round as stored, target represented by its
// stats tuple rather than a candidate reference.
type roundDoc struct {
	Day        string           `json:"day"`
	Candidates []game.Candidate `json:"candidates"`
	Target     game.Stats       `json:"target"`
}

func (s *SQLiteStore) PublishRound(ctx context.Context, day string, candidates []game.Candidate, target game.Stats) error {
	data, err := json.Marshal(roundDoc{Day: day, Candidates: candidates, Target: target})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (day, data) VALUES (?, jsonb(?))
		ON CONFLICT(day) DO UPDATE SET data = excluded.data
	`, day, string(data))
	return err
}

// RoundByDay loads and re-derives the round. Target ambiguity in stored
// data surfaces here as an error, before any session can enter playing.
func (s *SQLiteStore) RoundByDay(ctx context.Context, day string) (*game.Round, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT json(data) FROM rounds WHERE day = ?
	`, day).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc roundDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding round %s: %w", day, err)
	}
	return game.NewRound(doc.Day, doc.Candidates, doc.Target)
}

// --- outcomes and leaderboard ---

// RecordOutcome stores the outcome and fans the entry into every partition
// in one transaction. Duplicate deliveries of the same outcome are ignored
// wholesale so leaderboard rows are never double-counted.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, rec OutcomeRecord, partitions []string, entry game.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO outcomes (id, player_id, round_day, correct, score, questions, seconds_left, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.PlayerID, rec.RoundDay, boolInt(rec.Correct), rec.Score, rec.Questions, rec.SecondsLeft, rec.CompletedAt)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Already recorded; nothing more to do.
		return tx.Commit()
	}

	for _, key := range partitions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leaderboard_entries (partition_key, player_id, display_name, score)
			VALUES (?, ?, ?, ?)
		`, key, entry.PlayerID, entry.DisplayName, entry.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Leaderboard cursors are base64("score|seq") of the last returned row;
// history cursors are base64("completedAt|id"). Opaque to clients.

// errBadCursor marks a client-supplied cursor that cannot be decoded, as
// opposed to a genuine store failure.
var errBadCursor = errors.New("malformed cursor")

func encodeCursor(parts ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, "|")))
}

func decodeCursor(cursor string, n int) ([]string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadCursor, err)
	}
	parts := strings.SplitN(string(raw), "|", n)
	if len(parts) != n {
		return nil, errBadCursor
	}
	return parts, nil
}

func (s *SQLiteStore) LeaderboardPage(ctx context.Context, partitionKey, cursor string, limit int) (game.EntryPage, error) {
	query := `
		SELECT player_id, display_name, score, seq
		FROM leaderboard_entries
		WHERE partition_key = ?`
	args := []any{partitionKey}

	if cursor != "" {
		parts, err := decodeCursor(cursor, 2)
		if err != nil {
			return game.EntryPage{}, err
		}
		score, err := strconv.Atoi(parts[0])
		if err != nil {
			return game.EntryPage{}, errBadCursor
		}
		seq, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return game.EntryPage{}, errBadCursor
		}
		query += ` AND (score < ? OR (score = ? AND seq > ?))`
		args = append(args, score, score, seq)
	}

	query += ` ORDER BY score DESC, seq ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return game.EntryPage{}, err
	}
	defer rows.Close()

	var page game.EntryPage
	var lastScore, lastSeq int64
	for rows.Next() {
		var e game.Entry
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.Score, &lastSeq); err != nil {
			return game.EntryPage{}, err
		}
		lastScore = int64(e.Score)
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return game.EntryPage{}, err
	}

	if len(page.Entries) > 0 {
		page.Cursor = encodeCursor(strconv.FormatInt(lastScore, 10), strconv.FormatInt(lastSeq, 10))
	}
	page.HasMore = len(page.Entries) == limit
	return page, nil
}

func (s *SQLiteStore) HistoryPage(ctx context.Context, playerID, cursor string, limit int) (game.HistoryPage, error) {
	query := `
		SELECT id, round_day, correct, score, questions, completed_at
		FROM outcomes
		WHERE player_id = ?`
	args := []any{playerID}

	if cursor != "" {
		parts, err := decodeCursor(cursor, 2)
		if err != nil {
			return game.HistoryPage{}, err
		}
		query += ` AND (completed_at < ? OR (completed_at = ? AND id > ?))`
		args = append(args, parts[0], parts[0], parts[1])
	}

	query += ` ORDER BY completed_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return game.HistoryPage{}, err
	}
	defer rows.Close()

	var page game.HistoryPage
	var lastAt, lastID string
	for rows.Next() {
		var e game.HistoryEntry
		var correct int
		var completedAt string
		if err := rows.Scan(&e.OutcomeID, &e.RoundDate, &correct, &e.Score, &e.QuestionsAsked, &completedAt); err != nil {
			return game.HistoryPage{}, err
		}
		e.Correct = correct != 0
		e.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return game.HistoryPage{}, fmt.Errorf("parse completed_at %q: %w", completedAt, err)
		}
		lastAt, lastID = completedAt, e.OutcomeID
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return game.HistoryPage{}, err
	}

	if len(page.Entries) > 0 {
		page.Cursor = encodeCursor(lastAt, lastID)
	}
	page.HasMore = len(page.Entries) == limit
	return page, nil
}

// --- admin ---

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
