package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPartitionKey(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    WindowQuery
		want string
	}{
		{"all time", WindowQuery{Window: WindowAllTime}, "all_time"},
		{"year scalar", WindowQuery{Window: WindowYear, Year: 2023}, "2023"},
		{"year default", WindowQuery{Window: WindowYear}, "2024"},
		{"quarter scalar", WindowQuery{Window: WindowQuarter, Year: 2024, Quarter: 2}, "2024_Q2"},
		{"quarter default", WindowQuery{Window: WindowQuarter}, "2024_Q1"},
		{"month", WindowQuery{Window: WindowMonth, Year: 2024, Month: 3}, "2024_03"},
		{"month default", WindowQuery{Window: WindowMonth}, "2024_03"},
		{"day", WindowQuery{Window: WindowDay}, "2024-03-15"},
		{"yesterday", WindowQuery{Window: WindowYesterday}, "2024-03-14"},
		{"day before", WindowQuery{Window: WindowDayBefore}, "2024-03-13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.q.PartitionKey(now)
			if err != nil {
				t.Fatalf("PartitionKey: %v", err)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := (WindowQuery{Window: "fortnight"}).PartitionKey(now); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("err = %v, want ErrUnknownWindow", err)
	}
}

func TestPartitionKeys(t *testing.T) {
	day := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	got := PartitionKeys(day)
	want := []string{"all_time", "2024", "2024_Q4", "2024_11", "2024-11-02"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// pagedFetch serves n entries in score-descending order, cursor = offset.
func pagedFetch(total int) FetchFunc {
	return func(ctx context.Context, key, cursor string, limit int) (EntryPage, error) {
		offset := 0
		if cursor != "" {
			fmt.Sscanf(cursor, "%d", &offset)
		}
		var page EntryPage
		for i := offset; i < total && i-offset < limit; i++ {
			page.Entries = append(page.Entries, Entry{
				PlayerID:    fmt.Sprintf("p%d", i),
				DisplayName: fmt.Sprintf("Player %d", i),
				Score:       1000 - i,
			})
		}
		page.Cursor = fmt.Sprintf("%d", offset+len(page.Entries))
		page.HasMore = len(page.Entries) == limit
		return page, nil
	}
}

func TestPagerPagination(t *testing.T) {
	p := NewPager(pagedFetch(120), testClock)
	ctx := context.Background()

	if err := p.Select(WindowQuery{Window: WindowAllTime}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !p.HasMore() {
		t.Fatal("a fresh selection must allow a first fetch")
	}

	entries, err := p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(entries) != LeaderboardPageSize {
		t.Fatalf("entries = %d, want %d", len(entries), LeaderboardPageSize)
	}
	if !p.HasMore() {
		t.Fatal("a full page means more may exist")
	}

	entries, err = p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(entries) != 100 {
		t.Fatalf("entries = %d, want 100", len(entries))
	}

	entries, err = p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(entries) != 120 {
		t.Fatalf("entries = %d, want 120", len(entries))
	}
	if p.HasMore() {
		t.Error("a short page means the partition is exhausted")
	}

	// Further More calls are no-ops.
	entries, err = p.More(ctx)
	if err != nil || len(entries) != 120 {
		t.Errorf("exhausted More = (%d, %v), want (120, nil)", len(entries), err)
	}

	// Entries stay ordered by score descending.
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Fatalf("entries out of order at %d: %d > %d", i, entries[i].Score, entries[i-1].Score)
		}
	}
}

func TestPagerSelectResets(t *testing.T) {
	p := NewPager(pagedFetch(120), testClock)
	ctx := context.Background()

	if err := p.Select(WindowQuery{Window: WindowAllTime}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := p.More(ctx); err != nil {
		t.Fatalf("More: %v", err)
	}

	if err := p.Select(WindowQuery{Window: WindowMonth, Year: 2024, Month: 3}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := p.Entries(); len(got) != 0 {
		t.Errorf("entries after reselect = %d, want 0", len(got))
	}
	if !p.HasMore() {
		t.Error("reselect must reset hasMore")
	}
}

func TestPagerDropsStalePage(t *testing.T) {
	p := NewPager(nil, testClock)
	release := make(chan struct{})
	p.fetch = func(ctx context.Context, key, cursor string, limit int) (EntryPage, error) {
		if key == "all_time" {
			// Simulate a slow fetch: the window changes before it lands.
			<-release
		}
		return pagedFetch(120)(ctx, key, cursor, limit)
	}
	ctx := context.Background()

	if err := p.Select(WindowQuery{Window: WindowAllTime}); err != nil {
		t.Fatalf("Select: %v", err)
	}

	done := make(chan []Entry)
	go func() {
		entries, _ := p.More(ctx)
		done <- entries
	}()

	if err := p.Select(WindowQuery{Window: WindowYear, Year: 2023}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	close(release)

	if entries := <-done; len(entries) != 0 {
		t.Errorf("stale page applied: %d entries", len(entries))
	}
}

func historyFetch(total int) HistoryFetchFunc {
	return func(ctx context.Context, playerID, cursor string, limit int) (HistoryPage, error) {
		offset := 0
		if cursor != "" {
			fmt.Sscanf(cursor, "%d", &offset)
		}
		var page HistoryPage
		for i := offset; i < total && i-offset < limit; i++ {
			page.Entries = append(page.Entries, HistoryEntry{
				OutcomeID: fmt.Sprintf("o%d", i),
				Score:     500 - i,
			})
		}
		page.Cursor = fmt.Sprintf("%d", offset+len(page.Entries))
		page.HasMore = len(page.Entries) == limit
		return page, nil
	}
}

func TestHistoryPager(t *testing.T) {
	p := NewHistoryPager("p1", historyFetch(25))
	ctx := context.Background()

	entries, err := p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(entries) != HistoryPageSize {
		t.Fatalf("entries = %d, want %d", len(entries), HistoryPageSize)
	}
	if !p.HasMore() {
		t.Fatal("full page means more may exist")
	}

	if _, err := p.More(ctx); err != nil {
		t.Fatalf("More: %v", err)
	}
	entries, err = p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(entries) != 25 {
		t.Fatalf("entries = %d, want 25", len(entries))
	}
	if p.HasMore() {
		t.Error("short page means history is exhausted")
	}
}

func TestHistoryPagerDeduplicates(t *testing.T) {
	// A store that re-delivers the first entry on every page.
	fetch := func(ctx context.Context, playerID, cursor string, limit int) (HistoryPage, error) {
		page, err := historyFetch(25)(ctx, playerID, cursor, limit)
		if err != nil {
			return page, err
		}
		if cursor != "" {
			page.Entries = append([]HistoryEntry{{OutcomeID: "o0", Score: 500}}, page.Entries...)
		}
		return page, nil
	}

	p := NewHistoryPager("p1", fetch)
	ctx := context.Background()
	if _, err := p.More(ctx); err != nil {
		t.Fatalf("More: %v", err)
	}
	entries, err := p.More(ctx)
	if err != nil {
		t.Fatalf("More: %v", err)
	}

	seen := make(map[string]int)
	for _, e := range entries {
		seen[e.OutcomeID]++
	}
	if seen["o0"] != 1 {
		t.Errorf("o0 delivered %d times, want 1", seen["o0"])
	}
}
