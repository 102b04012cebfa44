package game

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testClock = func() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(Stats{
		TempMax:       24,
		TempMin:       13,
		Precipitation: 2.5,
		Sunshine:      60,
		WindMax:       32,
		Pressure:      1013,
	}, testClock)
}

func TestAskAnswers(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"greater true", Question{AttrTempMax, OpGreater, "20", Units{}}, true},
		{"greater false", Question{AttrTempMax, OpGreater, "30", Units{}}, false},
		{"less true", Question{AttrWindMax, OpLess, "40", Units{}}, true},
		{"less false", Question{AttrWindMax, OpLess, "10", Units{}}, false},
		{"equal exact", Question{AttrPressure, OpEqual, "1013", Units{}}, true},
		{"equal within tolerance", Question{AttrPressure, OpEqual, "1013.05", Units{}}, true},
		{"equal outside tolerance", Question{AttrPressure, OpEqual, "1013.2", Units{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator()
			ans, err := e.Ask(tt.q)
			if err != nil {
				t.Fatalf("Ask: %v", err)
			}
			if ans.Result != tt.want {
				t.Errorf("result = %v, want %v", ans.Result, tt.want)
			}
			if e.Asked() != 1 {
				t.Errorf("asked = %d, want 1", e.Asked())
			}
		})
	}
}

func TestAskUnitConversion(t *testing.T) {
	e := newTestEvaluator()

	// 75.2 °F is exactly 24 °C, the target's max temperature.
	ans, err := e.Ask(Question{AttrTempMax, OpEqual, "75.2", Units{Temperature: "fahrenheit"}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.Result {
		t.Error("75.2 °F should equal the 24 °C target")
	}

	// 10 m/s is 36 km/h, above the 32 km/h target.
	ans, err = e.Ask(Question{AttrWindMax, OpLess, "10", Units{Wind: "ms"}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.Result {
		t.Error("target 32 km/h should be below 36 km/h")
	}

	// 29.92 inHg ≈ 1013.2 hPa.
	ans, err = e.Ask(Question{AttrPressure, OpGreater, "29.92", Units{Pressure: "inhg"}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Result {
		t.Error("target 1013 hPa is not above 29.92 inHg")
	}
}

func TestAskSanitizesValues(t *testing.T) {
	// Sunshine clamps to [0,100]: 150 behaves like 100.
	e := newTestEvaluator()
	ans, err := e.Ask(Question{AttrSunshine, OpLess, "150", Units{}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.Result {
		t.Error("target 60%% should be below a clamped 100%%")
	}

	// Precipitation clamps to ≥0: -5 behaves like 0.
	e = newTestEvaluator()
	ans, err = e.Ask(Question{AttrPrecipitation, OpGreater, "-5", Units{}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.Result {
		t.Error("target 2.5mm should be above a clamped 0")
	}
}

func TestAskRejections(t *testing.T) {
	e := newTestEvaluator()

	cases := []struct {
		name string
		q    Question
		want error
	}{
		{"unknown attribute", Question{"humidity", OpGreater, "1", Units{}}, ErrUnknownAttribute},
		{"unknown operator", Question{AttrTempMax, ">=", "1", Units{}}, ErrUnknownOperator},
		{"not a number", Question{AttrTempMax, OpGreater, "warm", Units{}}, ErrBadValue},
		{"empty value", Question{AttrTempMax, OpGreater, "", Units{}}, ErrBadValue},
		{"infinite value", Question{AttrTempMax, OpGreater, "Inf", Units{}}, ErrBadValue},
		{"nan value", Question{AttrTempMax, OpGreater, "NaN", Units{}}, ErrBadValue},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Ask(tt.q); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if e.Asked() != 0 {
		t.Errorf("rejections must not consume the budget, asked = %d", e.Asked())
	}
	if e.Last() != nil {
		t.Error("rejections must not produce an answer")
	}
}

func TestAskCooldownBlackout(t *testing.T) {
	e := newTestEvaluator()

	if _, err := e.Ask(Question{AttrTempMax, OpGreater, "20", Units{}}); err != nil {
		t.Fatalf("first ask: %v", err)
	}

	// Three consecutive asks on one attribute: the second and third are
	// rejected and do not consume the budget.
	for i := 0; i < 2; i++ {
		if _, err := e.Ask(Question{AttrTempMax, OpLess, "30", Units{}}); !errors.Is(err, ErrAttributeBlocked) {
			t.Fatalf("blocked ask %d: err = %v, want ErrAttributeBlocked", i+1, err)
		}
	}
	if e.Asked() != 1 {
		t.Errorf("asked = %d, want 1", e.Asked())
	}

	// One intervening accepted ask is not enough either; the attribute is
	// unusable for exactly the two asks following its own use.
	if _, err := e.Ask(Question{AttrWindMax, OpGreater, "10", Units{}}); err != nil {
		t.Fatalf("filler ask: %v", err)
	}
	if _, err := e.Ask(Question{AttrTempMax, OpLess, "30", Units{}}); !errors.Is(err, ErrAttributeBlocked) {
		t.Fatalf("after one filler: err = %v, want ErrAttributeBlocked", err)
	}
}

func TestAskCooldownExpiresAfterTwoAsks(t *testing.T) {
	e := newTestEvaluator()

	asks := []Attribute{AttrTempMax, AttrWindMax, AttrPressure}
	for _, a := range asks {
		if _, err := e.Ask(Question{a, OpGreater, "1", Units{}}); err != nil {
			t.Fatalf("ask %s: %v", a, err)
		}
	}

	// Two questions have passed since temp was asked; it is usable again.
	if _, err := e.Ask(Question{AttrTempMax, OpGreater, "1", Units{}}); err != nil {
		t.Fatalf("temp should be unblocked after two asks, got %v", err)
	}
	if e.Asked() != 4 {
		t.Errorf("asked = %d, want 4", e.Asked())
	}
}

func TestAskBudgetExhausted(t *testing.T) {
	e := newTestEvaluator()

	// Rotate through three attributes so cooldowns never block.
	rotation := []Attribute{AttrTempMax, AttrWindMax, AttrPressure}
	for i := 0; i < QuestionBudget; i++ {
		if _, err := e.Ask(Question{rotation[i%3], OpGreater, "1", Units{}}); err != nil {
			t.Fatalf("ask %d: %v", i+1, err)
		}
	}

	if _, err := e.Ask(Question{AttrSunshine, OpGreater, "1", Units{}}); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("err = %v, want ErrBudgetExhausted", err)
	}
	if e.Asked() != QuestionBudget {
		t.Errorf("asked = %d, want %d", e.Asked(), QuestionBudget)
	}
}

func TestAskKeepsLatestAnswerAndLog(t *testing.T) {
	e := newTestEvaluator()

	first, _ := e.Ask(Question{AttrTempMax, OpGreater, "20", Units{}})
	second, _ := e.Ask(Question{AttrWindMax, OpLess, "40", Units{}})

	if last := e.Last(); last == nil || last.Question != second.Question {
		t.Errorf("Last = %+v, want the second answer", last)
	}
	log := e.Log()
	if len(log) != 2 || log[0].Question != first.Question {
		t.Errorf("log = %+v, want both answers in order", log)
	}
}

func TestToCanonicalRoundTrip(t *testing.T) {
	got := toCanonical(AttrTempMax, 32, Units{Temperature: "fahrenheit"})
	if math.Abs(got) > 1e-9 {
		t.Errorf("32 °F = %v °C, want 0", got)
	}
	got = toCanonical(AttrWindMax, 1, Units{Wind: "ms"})
	if math.Abs(got-3.6) > 1e-9 {
		t.Errorf("1 m/s = %v km/h, want 3.6", got)
	}
}
