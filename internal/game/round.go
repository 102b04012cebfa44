// Package game implements the Guess the City round engine: the round data
// model, question evaluation with attribute cooldowns, the round state
// machine, scoring, score submission, and leaderboard window pagination.
// Collaborators (round source, ledger, stores) are interfaces so the engine
// can be driven entirely by test doubles.
package game

import (
	"errors"
	"fmt"
)

// RoundSize is the fixed number of candidates in every round.
const RoundSize = 24

// Attribute identifies one of the six numeric weather attributes a
// candidate carries and a question may target.
type Attribute string

const (
	AttrTempMax       Attribute = "temperature_max"
	AttrTempMin       Attribute = "temperature_min"
	AttrPrecipitation Attribute = "precipitation_sum"
	AttrSunshine      Attribute = "sunshine_pct"
	AttrWindMax       Attribute = "wind_max"
	AttrPressure      Attribute = "pressure_surface"
)

// Attributes lists all queryable attributes in display order.
var Attributes = []Attribute{
	AttrTempMax,
	AttrTempMin,
	AttrPrecipitation,
	AttrSunshine,
	AttrWindMax,
	AttrPressure,
}

// Valid reports whether a is one of the six known attributes.
func (a Attribute) Valid() bool {
	switch a {
	case AttrTempMax, AttrTempMin, AttrPrecipitation, AttrSunshine, AttrWindMax, AttrPressure:
		return true
	}
	return false
}

// Stats is a candidate's attribute tuple in canonical units:
// °C, mm, percent, km/h, hPa.
type Stats struct {
	TempMax       float64 `json:"temperatureMax"`
	TempMin       float64 `json:"temperatureMin"`
	Precipitation float64 `json:"precipitationSum"`
	Sunshine      float64 `json:"sunshinePct"`
	WindMax       float64 `json:"windMax"`
	Pressure      float64 `json:"pressureSurface"`
}

// Value returns the stat for the given attribute.
func (s Stats) Value(a Attribute) float64 {
	switch a {
	case AttrTempMax:
		return s.TempMax
	case AttrTempMin:
		return s.TempMin
	case AttrPrecipitation:
		return s.Precipitation
	case AttrSunshine:
		return s.Sunshine
	case AttrWindMax:
		return s.WindMax
	case AttrPressure:
		return s.Pressure
	}
	return 0
}

// Candidate is one playable city in a round. Immutable once the round starts.
type Candidate struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Stats  Stats   `json:"stats"`
}

// ErrAmbiguousTarget is returned when the published target stats match zero
// or more than one candidate. The round is unplayable and must be aborted.
var ErrAmbiguousTarget = errors.New("target stats do not identify exactly one candidate")

// Round is the frozen snapshot for one play-through: the candidate set, the
// hidden target, and the round's date tag.
type Round struct {
	Date       string
	Candidates []Candidate
	target     int
}

// NewRound derives the hidden target by scanning for the candidate whose
// six-attribute tuple equals the published target stats. Zero or multiple
// matches is a data-integrity failure, never resolved by picking one.
func NewRound(date string, candidates []Candidate, target Stats) (*Round, error) {
	if len(candidates) != RoundSize {
		return nil, fmt.Errorf("round has %d candidates, want %d", len(candidates), RoundSize)
	}

	match := -1
	for i, c := range candidates {
		if c.Stats != target {
			continue
		}
		if match >= 0 {
			return nil, ErrAmbiguousTarget
		}
		match = i
	}
	if match < 0 {
		return nil, ErrAmbiguousTarget
	}

	return &Round{
		Date:       date,
		Candidates: candidates,
		target:     match,
	}, nil
}

// Target returns the hidden candidate.
func (r *Round) Target() Candidate {
	return r.Candidates[r.target]
}

// Candidate returns the candidate with the given ID.
func (r *Round) Candidate(id string) (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// FlipSet tracks which candidates the player has eliminated. Eliminations
// are explicit user actions and only ever go false→true; answers never
// eliminate anything automatically.
type FlipSet map[string]bool

// Eliminate marks a candidate as flipped. Re-eliminating is a no-op.
func (f FlipSet) Eliminate(id string) {
	f[id] = true
}

// Eliminated reports whether the candidate has been flipped.
func (f FlipSet) Eliminated(id string) bool {
	return f[id]
}

// Standing returns how many of the round's candidates remain un-eliminated.
func (f FlipSet) Standing(r *Round) int {
	n := 0
	for _, c := range r.Candidates {
		if !f[c.ID] {
			n++
		}
	}
	return n
}

// Sole returns the single un-eliminated candidate, or false when zero or
// more than one remain.
func (f FlipSet) Sole(r *Round) (Candidate, bool) {
	var sole Candidate
	found := false
	for _, c := range r.Candidates {
		if f[c.ID] {
			continue
		}
		if found {
			return Candidate{}, false
		}
		sole = c
		found = true
	}
	return sole, found
}
