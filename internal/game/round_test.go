package game

import (
	"errors"
	"fmt"
	"testing"
)

// testCandidates builds a full round's worth of candidates with distinct
// stats. Candidate i has TempMax 10+i so tests can target any of them.
func testCandidates() []Candidate {
	cands := make([]Candidate, RoundSize)
	for i := range cands {
		cands[i] = Candidate{
			ID:     fmt.Sprintf("city-%02d", i),
			Name:   fmt.Sprintf("City %d", i),
			Region: "EU",
			Stats: Stats{
				TempMax:       10 + float64(i),
				TempMin:       float64(i),
				Precipitation: float64(i) * 0.5,
				Sunshine:      float64(i * 4),
				WindMax:       20 + float64(i),
				Pressure:      1000 + float64(i),
			},
		}
	}
	return cands
}

func TestNewRound(t *testing.T) {
	cands := testCandidates()

	r, err := NewRound("2026-08-29", cands, cands[7].Stats)
	if err != nil {
		t.Fatalf("NewRound: %v", err)
	}
	if got := r.Target().ID; got != "city-07" {
		t.Errorf("target = %q, want city-07", got)
	}
}

func TestNewRoundNoMatch(t *testing.T) {
	cands := testCandidates()

	_, err := NewRound("2026-08-29", cands, Stats{TempMax: -99})
	if !errors.Is(err, ErrAmbiguousTarget) {
		t.Fatalf("err = %v, want ErrAmbiguousTarget", err)
	}
}

func TestNewRoundDuplicateMatch(t *testing.T) {
	cands := testCandidates()
	cands[5].Stats = cands[3].Stats

	_, err := NewRound("2026-08-29", cands, cands[3].Stats)
	if !errors.Is(err, ErrAmbiguousTarget) {
		t.Fatalf("err = %v, want ErrAmbiguousTarget", err)
	}
}

func TestNewRoundWrongSize(t *testing.T) {
	cands := testCandidates()[:10]

	if _, err := NewRound("2026-08-29", cands, cands[0].Stats); err == nil {
		t.Fatal("expected error for short candidate list")
	}
}

func TestFlipSet(t *testing.T) {
	cands := testCandidates()
	r, err := NewRound("2026-08-29", cands, cands[0].Stats)
	if err != nil {
		t.Fatalf("NewRound: %v", err)
	}

	flips := make(FlipSet)
	if got := flips.Standing(r); got != RoundSize {
		t.Fatalf("standing = %d, want %d", got, RoundSize)
	}
	if _, ok := flips.Sole(r); ok {
		t.Error("Sole should fail with all candidates standing")
	}

	for _, c := range cands[1:] {
		flips.Eliminate(c.ID)
	}
	if got := flips.Standing(r); got != 1 {
		t.Fatalf("standing = %d, want 1", got)
	}

	sole, ok := flips.Sole(r)
	if !ok {
		t.Fatal("Sole should succeed with one candidate standing")
	}
	if sole.ID != "city-00" {
		t.Errorf("sole = %q, want city-00", sole.ID)
	}

	// Re-eliminating stays eliminated; there is no un-flip.
	flips.Eliminate("city-01")
	if !flips.Eliminated("city-01") {
		t.Error("city-01 should remain eliminated")
	}
}
