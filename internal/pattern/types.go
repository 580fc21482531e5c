// Package pattern holds the question pattern data model and the
// read-only store that indexes a loaded corpus.
package pattern

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Roand-7/Lokaah-sub001/internal/solver"
)

// Difficulty grades a pattern for exam composition.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Hint is one rung of a pattern's Socratic hint ladder.
type Hint struct {
	Level int    `json:"level"`
	Hint  string `json:"hint"`
	Nudge string `json:"nudge"`
}

// RuleKind discriminates how a variable's value is produced.
type RuleKind string

const (
	// RuleRange draws a uniform integer from [Min, Max].
	RuleRange RuleKind = "range"

	// RuleChoice picks uniformly from a fixed list of values.
	RuleChoice RuleKind = "choice"

	// RuleDerived computes the value from already-sampled variables.
	RuleDerived RuleKind = "derived"
)

// VariableRule is the generation spec for one template variable.
type VariableRule struct {
	Kind    RuleKind
	Min     int64          // range
	Max     int64          // range
	Choices []solver.Value // choice
	Formula string         // derived
}

// UnmarshalJSON accepts the corpus rule forms:
//
//	{"kind": "range", "min": 2, "max": 20}
//	{"kind": "choice", "values": [2, 3, "1/2", "heads"]}
//	{"kind": "derived", "formula": "a*b"}
func (r *VariableRule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind    string            `json:"kind"`
		Min     *int64            `json:"min"`
		Max     *int64            `json:"max"`
		Values  []json.RawMessage `json:"values"`
		Formula string            `json:"formula"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch RuleKind(raw.Kind) {
	case RuleRange:
		if raw.Min == nil || raw.Max == nil {
			return fmt.Errorf("range rule needs min and max")
		}
		if *raw.Min > *raw.Max {
			return fmt.Errorf("range rule has min %d > max %d", *raw.Min, *raw.Max)
		}
		*r = VariableRule{Kind: RuleRange, Min: *raw.Min, Max: *raw.Max}
		return nil
	case RuleChoice:
		if len(raw.Values) == 0 {
			return fmt.Errorf("choice rule has no values")
		}
		choices := make([]solver.Value, len(raw.Values))
		for i, v := range raw.Values {
			val, err := parseChoiceValue(v)
			if err != nil {
				return fmt.Errorf("choice value %d: %w", i, err)
			}
			choices[i] = val
		}
		*r = VariableRule{Kind: RuleChoice, Choices: choices}
		return nil
	case RuleDerived:
		if strings.TrimSpace(raw.Formula) == "" {
			return fmt.Errorf("derived rule has empty formula")
		}
		*r = VariableRule{Kind: RuleDerived, Formula: raw.Formula}
		return nil
	default:
		return fmt.Errorf("unknown rule kind %q", raw.Kind)
	}
}

// MarshalJSON writes the rule back in its corpus form.
func (r VariableRule) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RuleRange:
		return json.Marshal(map[string]any{"kind": "range", "min": r.Min, "max": r.Max})
	case RuleChoice:
		values := make([]any, len(r.Choices))
		for i, c := range r.Choices {
			switch c.Kind {
			case solver.KindInt:
				values[i] = c.Int
			case solver.KindFloat:
				values[i] = c.Float
			default:
				values[i] = c.String()
			}
		}
		return json.Marshal(map[string]any{"kind": "choice", "values": values})
	case RuleDerived:
		return json.Marshal(map[string]any{"kind": "derived", "formula": r.Formula})
	default:
		return nil, fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

// parseChoiceValue converts a JSON choice entry to a solver value.
// Integral numbers become ints, "p/q" strings become fractions, any
// other string is a categorical label.
func parseChoiceValue(raw json.RawMessage) (solver.Value, error) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num == float64(int64(num)) {
			return solver.Int64(int64(num)), nil
		}
		return solver.Float64(num), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return solver.Value{}, fmt.Errorf("value must be a number or string")
	}
	if p, q, ok := splitFraction(s); ok {
		return solver.Fraction(p, q)
	}
	return solver.Str(s), nil
}

func splitFraction(s string) (int64, int64, bool) {
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return 0, 0, false
	}
	p, err1 := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 64)
	q, err2 := strconv.ParseInt(strings.TrimSpace(s[i+1:]), 10, 64)
	if err1 != nil || err2 != nil || q == 0 {
		return 0, 0, false
	}
	return p, q, true
}

// Definition is one immutable question pattern. Created offline by the
// factory, loaded read-only at process start.
type Definition struct {
	ID               string                  `json:"pattern_id"`
	Topic            string                  `json:"topic"`
	Chapter          string                  `json:"chapter"`
	Marks            int                     `json:"marks"`
	Difficulty       Difficulty              `json:"difficulty"`
	TemplateText     string                  `json:"template_text"`
	Variables        map[string]VariableRule `json:"variables"`
	SolverExpression string                  `json:"solver_expression"`
	AnswerTemplate   string                  `json:"answer_template"`
	ValidationRules  []string                `json:"validation_rules"`
	SocraticHints    []Hint                  `json:"socratic_hints"`
}
