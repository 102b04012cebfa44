package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Page sizes for the two ranking views.
const (
	LeaderboardPageSize = 50
	HistoryPageSize     = 10
)

// Window selects a leaderboard ranking period.
type Window string

const (
	WindowAllTime   Window = "all_time"
	WindowYear      Window = "year"
	WindowQuarter   Window = "quarter"
	WindowMonth     Window = "month"
	WindowDay       Window = "day"
	WindowYesterday Window = "yesterday"
	WindowDayBefore Window = "day_before"
)

// ErrUnknownWindow is returned for an unrecognized selector.
var ErrUnknownWindow = errors.New("unknown leaderboard window")

// WindowQuery is a window selector plus its optional scalars. Zero scalars
// default to the current date.
type WindowQuery struct {
	Window  Window `json:"window"`
	Year    int    `json:"year,omitempty"`
	Month   int    `json:"month,omitempty"`
	Quarter int    `json:"quarter,omitempty"`
}

// PartitionKey resolves the query to the partition holding its entries.
func (q WindowQuery) PartitionKey(now time.Time) (string, error) {
	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	month := q.Month
	if month == 0 {
		month = int(now.Month())
	}
	quarter := q.Quarter
	if quarter == 0 {
		quarter = (int(now.Month())-1)/3 + 1
	}

	switch q.Window {
	case WindowAllTime:
		return "all_time", nil
	case WindowYear:
		return fmt.Sprintf("%d", year), nil
	case WindowQuarter:
		return fmt.Sprintf("%d_Q%d", year, quarter), nil
	case WindowMonth:
		return fmt.Sprintf("%d_%02d", year, month), nil
	case WindowDay:
		return now.Format("2006-01-02"), nil
	case WindowYesterday:
		return now.AddDate(0, 0, -1).Format("2006-01-02"), nil
	case WindowDayBefore:
		return now.AddDate(0, 0, -2).Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, q.Window)
}

// PartitionKeys returns every partition a score lands in when submitted on
// the given day: the day itself, its month, quarter, year, and all_time.
func PartitionKeys(day time.Time) []string {
	return []string{
		"all_time",
		fmt.Sprintf("%d", day.Year()),
		fmt.Sprintf("%d_Q%d", day.Year(), (int(day.Month())-1)/3+1),
		fmt.Sprintf("%d_%02d", day.Year(), int(day.Month())),
		day.Format("2006-01-02"),
	}
}

// Entry is one ranked leaderboard row.
type Entry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// EntryPage is one fetched page of ranked entries. Cursor is opaque and
// tied to the last entry; HasMore is true iff the page was full.
type EntryPage struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"hasMore"`
}

// FetchFunc retrieves one page of a partition ordered by score descending,
// starting after the cursor ("" for the first page).
type FetchFunc func(ctx context.Context, partitionKey, cursor string, limit int) (EntryPage, error)

// Pager accumulates leaderboard pages for one window. Changing the window
// resets everything; responses that arrive after a reset are dropped.
type Pager struct {
	fetch FetchFunc
	now   func() time.Time

	mu      sync.Mutex
	gen     uint64
	key     string
	entries []Entry
	cursor  string
	hasMore bool
}

// NewPager returns a pager backed by the given fetch function.
func NewPager(fetch FetchFunc, now func() time.Time) *Pager {
	return &Pager{fetch: fetch, now: now}
}

// Select resolves the window to a partition key and resets pagination.
func (p *Pager) Select(q WindowQuery) error {
	key, err := q.PartitionKey(p.now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.key = key
	p.entries = nil
	p.cursor = ""
	p.hasMore = true
	return nil
}

// More fetches and appends the next page. Returns the full accumulated list.
func (p *Pager) More(ctx context.Context) ([]Entry, error) {
	p.mu.Lock()
	if p.key == "" {
		p.mu.Unlock()
		return nil, errors.New("no window selected")
	}
	if !p.hasMore {
		entries := p.entries
		p.mu.Unlock()
		return entries, nil
	}
	gen, key, cursor := p.gen, p.key, p.cursor
	p.mu.Unlock()

	page, err := p.fetch(ctx, key, cursor, LeaderboardPageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// Window changed while the fetch was in flight; drop the page.
		return p.entries, nil
	}
	if err != nil {
		return p.entries, err
	}

	p.entries = append(p.entries, page.Entries...)
	p.cursor = page.Cursor
	p.hasMore = page.HasMore
	return p.entries, nil
}

// Entries returns the accumulated entries.
func (p *Pager) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries
}

// HasMore reports whether another page may exist.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// HistoryEntry is one of the player's own past outcomes.
type HistoryEntry struct {
	OutcomeID      string    `json:"outcomeId"`
	RoundDate      string    `json:"roundDate"`
	Correct        bool      `json:"correct"`
	Score          int       `json:"score"`
	QuestionsAsked int       `json:"questionsAsked"`
	CompletedAt    time.Time `json:"completedAt"`
}

// HistoryPage is one fetched page of a player's history.
type HistoryPage struct {
	Entries []HistoryEntry `json:"entries"`
	Cursor  string         `json:"cursor,omitempty"`
	HasMore bool           `json:"hasMore"`
}

// HistoryFetchFunc retrieves one page of a player's outcomes ordered by
// completion time descending.
type HistoryFetchFunc func(ctx context.Context, playerID, cursor string, limit int) (HistoryPage, error)

// HistoryPager accumulates a player's outcome history, deduplicating by
// outcome ID so a re-fetched page never shows the same round twice.
type HistoryPager struct {
	fetch    HistoryFetchFunc
	playerID string

	mu      sync.Mutex
	gen     uint64
	entries []HistoryEntry
	seen    map[string]bool
	cursor  string
	hasMore bool
}

// NewHistoryPager returns a history pager for the given player.
func NewHistoryPager(playerID string, fetch HistoryFetchFunc) *HistoryPager {
	return &HistoryPager{
		fetch:    fetch,
		playerID: playerID,
		seen:     make(map[string]bool),
		hasMore:  true,
	}
}

// More fetches and appends the next history page.
func (p *HistoryPager) More(ctx context.Context) ([]HistoryEntry, error) {
	p.mu.Lock()
	if !p.hasMore {
		entries := p.entries
		p.mu.Unlock()
		return entries, nil
	}
	gen, cursor := p.gen, p.cursor
	p.mu.Unlock()

	page, err := p.fetch(ctx, p.playerID, cursor, HistoryPageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return p.entries, nil
	}
	if err != nil {
		return p.entries, err
	}

	for _, e := range page.Entries {
		if p.seen[e.OutcomeID] {
			continue
		}
		p.seen[e.OutcomeID] = true
		p.entries = append(p.entries, e)
	}
	p.cursor = page.Cursor
	p.hasMore = page.HasMore
	return p.entries, nil
}

// Reset clears accumulated history, e.g. when leaving the view.
func (p *HistoryPager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.entries = nil
	p.seen = make(map[string]bool)
	p.cursor = ""
	p.hasMore = true
}

// HasMore reports whether another page may exist.
func (p *HistoryPager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}
