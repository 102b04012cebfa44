package game

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Round lifecycle parameters.
const (
	RoundSeconds = 300
	DailyPlayCap = 3
	CreditBuffer = 50
	RoundCost    = 25

	// CreditKind is the ledger resource consumed by starting a round.
	CreditKind = "credits"
)

// State is the session's position in the round lifecycle.
type State string

const (
	StateIntro        State = "intro"
	StateNameRequired State = "name_required"
	StateLoading      State = "loading"
	StatePlaying      State = "playing"
	StateWon          State = "won"
	StateLost         State = "lost"
)

// Terminal reports whether the state ends a round.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// Precondition and transition errors surfaced to the caller.
var (
	ErrRoundInProgress     = errors.New("a round is already in progress")
	ErrNotPlaying          = errors.New("no round in progress")
	ErrDailyCapReached     = errors.New("daily play limit reached")
	ErrNameRequired        = errors.New("display name required")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGuessNotReady       = errors.New("exactly one candidate must remain standing")
	ErrUnknownCandidate    = errors.New("unknown candidate")
)

// RoundSource supplies the daily round.
type RoundSource interface {
	FetchRound(ctx context.Context) (*Round, error)
}

// Ledger manages the player's credit balance. Consume must be atomic and
// return ErrInsufficientCredits when the balance cannot cover the amount.
type Ledger interface {
	Balance(ctx context.Context, playerID string) (int, error)
	Consume(ctx context.Context, playerID, kind string, amount int) error
}

// PlayLimiter tracks per-day play counts. Dates are YYYY-MM-DD.
type PlayLimiter interface {
	DailyCount(ctx context.Context, playerID, date string) (int, error)
	IncrementDaily(ctx context.Context, playerID, date string) error
}

// NameStore persists display names. Name returns "" when absent.
type NameStore interface {
	Name(ctx context.Context, playerID string) (string, error)
	SetName(ctx context.Context, playerID, name string) error
}

// ScoreSink receives a finished round's submission. One attempt, never
// retried automatically.
type ScoreSink interface {
	Submit(ctx context.Context, sub Submission) error
}

// Deps bundles the session's external collaborators.
type Deps struct {
	Rounds RoundSource
	Ledger Ledger
	Plays  PlayLimiter
	Names  NameStore
	Scores ScoreSink
}

// Outcome is the immutable terminal record of one round.
type Outcome struct {
	ID               string     `json:"id"`
	RoundDate        string     `json:"roundDate"`
	Guessed          *Candidate `json:"guessed,omitempty"`
	Correct          bool       `json:"correct"`
	QuestionsAsked   int        `json:"questionsAsked"`
	SecondsRemaining int        `json:"secondsRemaining"`
	Score            int        `json:"score"`
	Revealed         Candidate  `json:"revealed"`
	CompletedAt      time.Time  `json:"completedAt"`
}

// Session drives one player's round lifecycle. All state transitions,
// including timer ticks, serialize on a single mutex; asynchronous
// completions are tagged with a generation counter and discarded when the
// player has since left the round.
type Session struct {
	mu       sync.Mutex
	playerID string
	name     string
	deps     Deps
	now      func() time.Time

	state     State
	gen       uint64
	round     *Round
	eval      *Evaluator
	flips     FlipSet
	remaining int
	outcome   *Outcome
}

// NewSession returns an idle session for the given player. now supplies
// timestamps and the current date; pass time.Now outside tests.
func NewSession(playerID string, deps Deps, now func() time.Time) *Session {
	return &Session{
		playerID: playerID,
		deps:     deps,
		now:      now,
		state:    StateIntro,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerID returns the owning player.
func (s *Session) PlayerID() string { return s.playerID }

// DisplayName returns the name resolved during Start.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Snapshot is a read-only view of the in-flight round for display.
type Snapshot struct {
	State            State       `json:"state"`
	RoundDate        string      `json:"roundDate,omitempty"`
	Candidates       []Candidate `json:"candidates,omitempty"`
	Eliminated       []string    `json:"eliminated,omitempty"`
	SecondsRemaining int         `json:"secondsRemaining"`
	QuestionsAsked   int         `json:"questionsAsked"`
	QuestionsLeft    int         `json:"questionsLeft"`
	Blocked          []Attribute `json:"blockedAttributes,omitempty"`
	LastAnswer       *Answer     `json:"lastAnswer,omitempty"`
	Outcome          *Outcome    `json:"outcome,omitempty"`
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{State: s.state, Outcome: s.outcome}
	if s.round != nil {
		snap.RoundDate = s.round.Date
		snap.Candidates = s.round.Candidates
		for id, flipped := range s.flips {
			if flipped {
				snap.Eliminated = append(snap.Eliminated, id)
			}
		}
	}
	if s.state == StatePlaying {
		snap.SecondsRemaining = s.remaining
		snap.QuestionsAsked = s.eval.Asked()
		snap.QuestionsLeft = s.eval.Remaining()
		snap.Blocked = s.eval.Blocked()
		snap.LastAnswer = s.eval.Last()
	}
	return snap
}

// Start runs the intro guards, fetches a round, charges credits, and enters
// playing. Guard failures and fetch failures return the session to a stable
// state with the reason surfaced; credits are only consumed after a
// successful fetch so a transport failure never charges.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIntro && s.state != StateNameRequired {
		s.mu.Unlock()
		return ErrRoundInProgress
	}

	date := s.now().Format("2006-01-02")
	count, err := s.deps.Plays.DailyCount(ctx, s.playerID, date)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("checking daily plays: %w", err)
	}
	if count >= DailyPlayCap {
		s.mu.Unlock()
		return ErrDailyCapReached
	}

	name, err := s.deps.Names.Name(ctx, s.playerID)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("looking up display name: %w", err)
	}
	if name == "" {
		s.state = StateNameRequired
		s.mu.Unlock()
		return ErrNameRequired
	}
	s.name = name

	balance, err := s.deps.Ledger.Balance(ctx, s.playerID)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("checking balance: %w", err)
	}
	if balance < CreditBuffer {
		s.mu.Unlock()
		return ErrInsufficientCredits
	}

	s.state = StateLoading
	gen := s.gen
	s.mu.Unlock()

	round, err := s.deps.Rounds.FetchRound(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// Player left during the fetch; drop the response silently.
		return nil
	}
	if err != nil {
		s.state = StateIntro
		return fmt.Errorf("fetching round: %w", err)
	}

	if err := s.deps.Ledger.Consume(ctx, s.playerID, CreditKind, RoundCost); err != nil {
		s.state = StateIntro
		if errors.Is(err, ErrInsufficientCredits) {
			return ErrInsufficientCredits
		}
		return fmt.Errorf("consuming credits: %w", err)
	}

	s.round = round
	s.eval = NewEvaluator(round.Target().Stats, s.now)
	s.flips = make(FlipSet)
	s.remaining = RoundSeconds
	s.outcome = nil
	s.state = StatePlaying
	return nil
}

// RegisterName validates and stores a display name, clearing the
// name-required halt. Validation failures change nothing.
func (s *Session) RegisterName(ctx context.Context, name string) error {
	if err := ValidateDisplayName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deps.Names.SetName(ctx, s.playerID, name); err != nil {
		return fmt.Errorf("storing display name: %w", err)
	}
	s.name = name
	if s.state == StateNameRequired {
		s.state = StateIntro
	}
	return nil
}

// Ask evaluates one question against the round's target.
func (s *Session) Ask(q Question) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return Answer{}, ErrNotPlaying
	}
	return s.eval.Ask(q)
}

// Eliminate flips a candidate face-down. Only the player eliminates;
// answers never do.
func (s *Session) Eliminate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return ErrNotPlaying
	}
	if _, ok := s.round.Candidate(id); !ok {
		return ErrUnknownCandidate
	}
	s.flips.Eliminate(id)
	return nil
}

// Guess submits the sole standing candidate as the final answer and ends
// the round. Correctness compares max temperature, min temperature, and
// precipitation sum by exact equality; this is narrower than the
// six-attribute match used to identify the target at round construction,
// and is kept that way for parity with the shipped behavior.
func (s *Session) Guess(ctx context.Context) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return nil, ErrNotPlaying
	}

	guessed, ok := s.flips.Sole(s.round)
	if !ok {
		return nil, ErrGuessNotReady
	}

	target := s.round.Target().Stats
	correct := guessed.Stats.TempMax == target.TempMax &&
		guessed.Stats.TempMin == target.TempMin &&
		guessed.Stats.Precipitation == target.Precipitation

	return s.finishLocked(ctx, &guessed, correct)
}

// Tick advances the countdown by one second. Reaching zero forces a loss
// with the target revealed; the submission error, if any, is returned.
func (s *Session) Tick(ctx context.Context) (remaining int, ended bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return 0, false, nil
	}

	s.remaining--
	if s.remaining > 0 {
		return s.remaining, false, nil
	}

	s.remaining = 0
	_, err = s.finishLocked(ctx, nil, false)
	return 0, true, err
}

// finishLocked produces the outcome, increments the daily counter, and
// hands the submission to the score sink. Called with the mutex held.
func (s *Session) finishLocked(ctx context.Context, guessed *Candidate, correct bool) (*Outcome, error) {
	if correct {
		s.state = StateWon
	} else {
		s.state = StateLost
	}

	out := &Outcome{
		ID:               uuid.NewString(),
		RoundDate:        s.round.Date,
		Guessed:          guessed,
		Correct:          correct,
		QuestionsAsked:   s.eval.Asked(),
		SecondsRemaining: s.remaining,
		Score:            Score(correct, s.eval.Asked(), s.remaining),
		Revealed:         s.round.Target(),
		CompletedAt:      s.now(),
	}
	s.outcome = out

	date := s.now().Format("2006-01-02")
	if err := s.deps.Plays.IncrementDaily(ctx, s.playerID, date); err != nil {
		return out, fmt.Errorf("incrementing daily plays: %w", err)
	}

	sub := Submission{
		OutcomeID:        out.ID,
		PlayerID:         s.playerID,
		DisplayName:      s.name,
		Correct:          correct,
		Score:            out.Score,
		SecondsRemaining: out.SecondsRemaining,
		QuestionsAsked:   out.QuestionsAsked,
		Log:              s.eval.Log(),
	}
	if err := s.deps.Scores.Submit(ctx, sub); err != nil {
		return out, fmt.Errorf("submitting score: %w", err)
	}
	return out, nil
}

// Outcome returns the terminal record, or nil before the round ends.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Restart returns a terminal session to intro for another play-through.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Exit abandons the session. Any in-flight fetch or pagination response for
// the old round is discarded when it lands.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.gen++
	s.state = StateIntro
	s.round = nil
	s.eval = nil
	s.flips = nil
	s.remaining = 0
	s.outcome = nil
}

// Display-name rules: 5–25 characters, letters/digits/space/asterisk, no
// brand impersonation.
const (
	nameMinLen = 5
	nameMaxLen = 25

	reservedBrand = "cityguess"
)

var nameCharset = regexp.MustCompile(`^[A-Za-z0-9 *]+$`)

// Display-name validation errors.
var (
	ErrNameLength   = fmt.Errorf("display name must be %d-%d characters", nameMinLen, nameMaxLen)
	ErrNameCharset  = errors.New("display name may only contain letters, digits, spaces and *")
	ErrNameReserved = errors.New("display name may not contain the product name")
)

// ValidateDisplayName checks a proposed display name against the fixed rules.
func ValidateDisplayName(name string) error {
	if len(name) < nameMinLen || len(name) > nameMaxLen {
		return ErrNameLength
	}
	if !nameCharset.MatchString(name) {
		return ErrNameCharset
	}
	if strings.Contains(strings.ToLower(name), reservedBrand) {
		return ErrNameReserved
	}
	return nil
}
