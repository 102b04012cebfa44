package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/wettergames/cityguess/internal/game"
)

// The cached round document must carry the target as a stats tuple so the
// round can be rebuilt from redis exactly as it came out of sqlite.
func TestRoundDocRoundTrip(t *testing.T) {
	candidates := make([]game.Candidate, 0, game.RoundSize)
	for i := 0; i < game.RoundSize; i++ {
		candidates = append(candidates, game.Candidate{
			ID:   fmt.Sprintf("city-%02d", i+1),
			Name: fmt.Sprintf("City %02d", i+1),
			Stats: game.Stats{
				TempMax:       10 + float64(i),
				TempMin:       2 + float64(i),
				Precipitation: float64(i) * 0.5,
				Sunshine:      float64((i * 4) % 100),
				WindMax:       5 + float64(i)*2,
				Pressure:      1000 + float64(i),
			},
		})
	}

	round, err := game.NewRound("2026-08-29", candidates, candidates[11].Stats)
	if err != nil {
		t.Fatalf("building round: %v", err)
	}

	doc := roundDoc{Day: round.Date, Candidates: round.Candidates, Target: round.Target().Stats}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshaling round doc: %v", err)
	}

	var decoded roundDoc
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshaling round doc: %v", err)
	}

	rebuilt, err := game.NewRound(decoded.Day, decoded.Candidates, decoded.Target)
	if err != nil {
		t.Fatalf("rebuilding round from cached doc: %v", err)
	}
	if rebuilt.Target().ID != round.Target().ID {
		t.Errorf("rebuilt target = %q, want %q", rebuilt.Target().ID, round.Target().ID)
	}
	if len(rebuilt.Candidates) != game.RoundSize {
		t.Errorf("rebuilt candidates = %d, want %d", len(rebuilt.Candidates), game.RoundSize)
	}
}
