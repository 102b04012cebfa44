package game

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// QuestionBudget is the maximum number of questions per round.
const QuestionBudget = 25

// equalityTolerance absorbs floating rounding when comparing with "=".
// Expressed in the attribute's canonical unit.
const equalityTolerance = 0.1

// Operator is a comparison requested by the player.
type Operator string

const (
	OpGreater Operator = ">"
	OpLess    Operator = "<"
	OpEqual   Operator = "="
)

// Valid reports whether op is a supported comparison.
func (op Operator) Valid() bool {
	return op == OpGreater || op == OpLess || op == OpEqual
}

// Units describes the player's display units. Zero values mean canonical
// units (°C, km/h, hPa).
type Units struct {
	Temperature string `json:"temperature,omitempty"` // "celsius" | "fahrenheit"
	Wind        string `json:"wind,omitempty"`        // "kmh" | "mph" | "ms"
	Pressure    string `json:"pressure,omitempty"`    // "hpa" | "inhg"
}

// Question is one yes/no query against the round's target.
type Question struct {
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	RawValue  string    `json:"value"`
	Units     Units     `json:"units"`
}

// Answer is the result of an accepted question. Answers are display-transient:
// the evaluator keeps only the most recent one, plus an append-only log for
// history submission.
type Answer struct {
	Question string    `json:"question"`
	Result   bool      `json:"result"`
	AskedAt  time.Time `json:"askedAt"`
}

// Rejection reasons. A rejected question produces no answer and changes no
// state.
var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrBadValue         = errors.New("value is not a finite number")
	ErrAttributeBlocked = errors.New("attribute is cooling down")
	ErrBudgetExhausted  = errors.New("question budget exhausted")
)

// Evaluator answers questions against a fixed target, enforcing the
// question budget and the per-attribute cooldown policy.
type Evaluator struct {
	target    Stats
	asked     int
	cooldowns Cooldowns
	last      *Answer
	log       []Answer
	now       func() time.Time
}

// NewEvaluator returns an evaluator for the given target stats. now supplies
// answer timestamps; pass time.Now outside tests.
func NewEvaluator(target Stats, now func() time.Time) *Evaluator {
	return &Evaluator{target: target, now: now}
}

// Asked returns the number of accepted questions so far.
func (e *Evaluator) Asked() int { return e.asked }

// Remaining returns how many questions are left in the budget.
func (e *Evaluator) Remaining() int { return QuestionBudget - e.asked }

// Last returns the most recent answer, or nil before the first question.
func (e *Evaluator) Last() *Answer { return e.last }

// Log returns the append-only answer log.
func (e *Evaluator) Log() []Answer { return e.log }

// Blocked returns the attributes currently on cooldown.
func (e *Evaluator) Blocked() []Attribute { return e.cooldowns.BlockedAttributes() }

// Ask validates and answers one question. On acceptance it increments the
// question counter and rotates the cooldown table; on rejection nothing
// changes.
func (e *Evaluator) Ask(q Question) (Answer, error) {
	if !q.Attribute.Valid() {
		return Answer{}, ErrUnknownAttribute
	}
	if !q.Operator.Valid() {
		return Answer{}, ErrUnknownOperator
	}
	if e.asked >= QuestionBudget {
		return Answer{}, ErrBudgetExhausted
	}
	if e.cooldowns.Blocked(q.Attribute) {
		return Answer{}, fmt.Errorf("%w: %s", ErrAttributeBlocked, q.Attribute)
	}

	value, err := parseValue(q.Attribute, q.RawValue)
	if err != nil {
		return Answer{}, err
	}
	canonical := toCanonical(q.Attribute, value, q.Units)

	target := e.target.Value(q.Attribute)
	var result bool
	switch q.Operator {
	case OpGreater:
		result = target > canonical
	case OpLess:
		result = target < canonical
	case OpEqual:
		result = math.Abs(target-canonical) <= equalityTolerance
	}

	ans := Answer{
		Question: questionText(q.Attribute, q.Operator, canonical),
		Result:   result,
		AskedAt:  e.now(),
	}

	e.asked++
	e.cooldowns = e.cooldowns.Next(q.Attribute)
	e.last = &ans
	e.log = append(e.log, ans)
	return ans, nil
}

// parseValue parses and sanitizes the raw value for the given attribute:
// percentages clamp to [0,100], non-negative attributes clamp to ≥0.
func parseValue(a Attribute, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrBadValue
	}
	switch a {
	case AttrSunshine:
		v = math.Min(math.Max(v, 0), 100)
	case AttrPrecipitation, AttrWindMax, AttrPressure:
		v = math.Max(v, 0)
	}
	return v, nil
}

// toCanonical converts from the player's display unit into the attribute's
// storage unit: temperatures to °C, wind to km/h, pressure to hPa.
func toCanonical(a Attribute, v float64, u Units) float64 {
	switch a {
	case AttrTempMax, AttrTempMin:
		if u.Temperature == "fahrenheit" {
			return (v - 32) * 5 / 9
		}
	case AttrWindMax:
		switch u.Wind {
		case "mph":
			return v * 1.609344
		case "ms":
			return v * 3.6
		}
	case AttrPressure:
		if u.Pressure == "inhg" {
			return v * 33.8639
		}
	}
	return v
}

var attributeLabels = map[Attribute]string{
	AttrTempMax:       "max temperature",
	AttrTempMin:       "min temperature",
	AttrPrecipitation: "precipitation",
	AttrSunshine:      "sunshine",
	AttrWindMax:       "max wind",
	AttrPressure:      "surface pressure",
}

var operatorLabels = map[Operator]string{
	OpGreater: "above",
	OpLess:    "below",
	OpEqual:   "around",
}

func questionText(a Attribute, op Operator, canonical float64) string {
	return fmt.Sprintf("Is the target's %s %s %s?",
		attributeLabels[a], operatorLabels[op], strconv.FormatFloat(canonical, 'f', -1, 64))
}
