// Package sampler draws constraint-satisfying variable assignments for
// a pattern's generation rules.
package sampler

import (
	"fmt"
	"math/rand/v2"

	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/Roand-7/Lokaah-sub001/internal/solver"
)

// MaxAttempts bounds predicate-driven resampling. A pattern whose
// predicates reject this many full draws in a row fails the request
// with DomainExhaustedError rather than spinning.
const MaxAttempts = 20

// Assignment is one concrete name→value draw.
type Assignment map[string]solver.Value

// DomainExhaustedError reports that the retry budget ran out before a
// draw satisfied every non-degeneracy predicate.
type DomainExhaustedError struct {
	Predicate string // the predicate that rejected the final attempt
	Attempts  int
}

func (e *DomainExhaustedError) Error() string {
	return fmt.Sprintf("no valid assignment after %d attempts; last failing predicate: %s", e.Attempts, e.Predicate)
}

// Sample resolves the variables in dependency order (derived variables
// after everything their formulas reference) and checks every predicate
// against the full draw. Predicate failure triggers a complete
// resample, bounded at MaxAttempts. The caller supplies the RNG so
// draws are reproducible under a fixed seed.
func Sample(vars map[string]pattern.VariableRule, predicates []string, rng *rand.Rand) (Assignment, error) {
	order, err := pattern.OrderedNames(vars)
	if err != nil {
		return nil, err
	}

	var lastFailed string
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		assignment, err := drawOnce(order, vars, rng)
		if err != nil {
			return nil, err
		}
		failed, err := firstFailingPredicate(predicates, assignment)
		if err != nil {
			return nil, err
		}
		if failed == "" {
			return assignment, nil
		}
		lastFailed = failed
	}
	return nil, &DomainExhaustedError{Predicate: lastFailed, Attempts: MaxAttempts}
}

func drawOnce(order []string, vars map[string]pattern.VariableRule, rng *rand.Rand) (Assignment, error) {
	assignment := make(Assignment, len(vars))
	for _, name := range order {
		rule := vars[name]
		switch rule.Kind {
		case pattern.RuleRange:
			assignment[name] = solver.Int64(drawRange(rule.Min, rule.Max, rng))
		case pattern.RuleChoice:
			assignment[name] = rule.Choices[rng.IntN(len(rule.Choices))]
		case pattern.RuleDerived:
			v, err := solver.Evaluate(rule.Formula, assignment)
			if err != nil {
				return nil, fmt.Errorf("derive %q: %w", name, err)
			}
			assignment[name] = v
		default:
			return nil, fmt.Errorf("variable %q has unknown rule kind %q", name, rule.Kind)
		}
	}
	return assignment, nil
}

// drawRange draws uniformly from [min, max]. The width is computed in
// uint64 so ranges spanning more than half the int64 domain cannot
// overflow into a panic; a zero span means the full domain.
func drawRange(min, max int64, rng *rand.Rand) int64 {
	span := uint64(max) - uint64(min) + 1
	var u uint64
	if span == 0 {
		u = rng.Uint64()
	} else {
		u = rng.Uint64N(span)
	}
	return int64(uint64(min) + u)
}

// firstFailingPredicate evaluates each predicate against the draw and
// returns the first one that is false, or "" when all pass. A predicate
// that does not evaluate to a bool is a corpus defect.
func firstFailingPredicate(predicates []string, assignment Assignment) (string, error) {
	for _, pred := range predicates {
		v, err := solver.Evaluate(pred, assignment)
		if err != nil {
			return "", fmt.Errorf("predicate %q: %w", pred, err)
		}
		if v.Kind != solver.KindBool {
			return "", fmt.Errorf("predicate %q evaluated to %s, want bool", pred, v.Kind)
		}
		if !v.Bool {
			return pred, nil
		}
	}
	return "", nil
}
