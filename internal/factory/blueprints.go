package factory

import (
	"strings"

	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/Roand-7/Lokaah-sub001/internal/solver"
)

// blueprint is one parameterized template/solver pair in the family
// catalogue. Blueprints are the deterministic backfill: when the
// generative proposal source under-delivers, the factory cycles through
// the chapter's family to make up the count.
type blueprint struct {
	Topic           string
	TemplateText    string
	Variables       map[string]pattern.VariableRule
	Solver          string
	AnswerTemplate  string
	ValidationRules []string
	Hints           []pattern.Hint
	Marks           int
}

func intRange(min, max int64) pattern.VariableRule {
	return pattern.VariableRule{Kind: pattern.RuleRange, Min: min, Max: max}
}

func choiceOf(values ...solver.Value) pattern.VariableRule {
	return pattern.VariableRule{Kind: pattern.RuleChoice, Choices: values}
}

func derivedFrom(formula string) pattern.VariableRule {
	return pattern.VariableRule{Kind: pattern.RuleDerived, Formula: formula}
}

func ints(ns ...int64) []solver.Value {
	out := make([]solver.Value, len(ns))
	for i, n := range ns {
		out[i] = solver.Int64(n)
	}
	return out
}

// difficultyRotation is the fixed backfill rotation.
var difficultyRotation = []pattern.Difficulty{
	pattern.DifficultyEasy,
	pattern.DifficultyMedium,
	pattern.DifficultyHard,
	pattern.DifficultyMedium,
}

// families maps a topic-family key to its blueprint catalogue. Chapter
// names resolve to a key through familyFor.
var families = map[string][]blueprint{
	"real_numbers": {
		{
			Topic:        "lcm and hcf",
			TemplateText: "Find the LCM and HCF of {a} and {b}, and verify that their product equals {a} * {b}.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(4, 90),
				"b": intRange(4, 90),
			},
			Solver:          "pair(lcm(a, b), hcf(a, b))",
			AnswerTemplate:  "LCM and HCF are {answer}; their product equals {a} * {b}.",
			ValidationRules: []string{"a != b"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Write each number as a product of primes.", Nudge: "Start with the smallest prime factor."},
				{Level: 2, Hint: "HCF takes the common factors, LCM takes all factors.", Nudge: "Compare the prime lists side by side."},
				{Level: 3, Hint: "LCM * HCF always equals the product of the two numbers.", Nudge: "Divide a*b by the HCF you found."},
			},
			Marks: 3,
		},
		{
			Topic:        "decimal expansion",
			TemplateText: "Without performing the division, state whether {p}/{q} has a terminating or non-terminating repeating decimal expansion.",
			Variables: map[string]pattern.VariableRule{
				"p": intRange(1, 30),
				"q": choiceOf(ints(2, 3, 4, 5, 6, 7, 8, 10, 12, 16, 20, 25)...),
			},
			Solver:          `if(q == 3 || q == 6 || q == 7 || q == 12, "Non-Terminating Repeating", "Terminating")`,
			AnswerTemplate:  "The expansion is {answer}.",
			ValidationRules: []string{"gcd(p, q) == 1"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Look at the prime factors of the denominator.", Nudge: "Factorise q completely."},
				{Level: 2, Hint: "Terminating expansions need denominators of the form 2^n * 5^m.", Nudge: "Is there any prime other than 2 or 5?"},
			},
			Marks: 1,
		},
	},
	"polynomials": {
		{
			Topic:        "zeroes of a quadratic",
			TemplateText: "Find the sum and product of the zeroes of the polynomial x^2 + {b}x + {c}.",
			Variables: map[string]pattern.VariableRule{
				"b": intRange(-9, 9),
				"c": intRange(-9, 9),
			},
			Solver:         "pair(-b, c)",
			AnswerTemplate: "Sum of zeroes = -b, product = c: {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "For x^2 + bx + c, the zeroes sum to -b.", Nudge: "Read b straight off the polynomial."},
				{Level: 2, Hint: "The product of the zeroes equals the constant term.", Nudge: "That is c here."},
			},
			Marks: 2,
		},
	},
	"linear_equations": {
		{
			Topic:        "pair of linear equations",
			TemplateText: "Solve for x and y: {a1}x + {b1}y = {c1} and {a2}x + {b2}y = {c2}.",
			Variables: map[string]pattern.VariableRule{
				"a1": intRange(1, 6),
				"b1": intRange(1, 6),
				"a2": intRange(1, 6),
				"b2": intRange(1, 6),
				"x":  intRange(-5, 5),
				"y":  intRange(-5, 5),
				"c1": derivedFrom("a1*x + b1*y"),
				"c2": derivedFrom("a2*x + b2*y"),
			},
			Solver:          "pair(x, y)",
			AnswerTemplate:  "x and y are {answer}.",
			ValidationRules: []string{"a1*b2 - a2*b1 != 0"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Eliminate one variable by scaling the equations.", Nudge: "Match the coefficients of y."},
				{Level: 2, Hint: "Subtract the scaled equations to get one equation in x.", Nudge: "Then back-substitute."},
			},
			Marks: 3,
		},
	},
	"quadratic_equations": {
		{
			Topic:        "nature of roots",
			TemplateText: "Determine the nature of the roots of {a}x^2 + {b}x + {c} = 0.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(1, 5),
				"b": intRange(-10, 10),
				"c": intRange(-10, 10),
			},
			Solver:         `if(b*b - 4*a*c > 0, "Real & Distinct", if(b*b - 4*a*c == 0, "Real & Equal", "No Real Roots"))`,
			AnswerTemplate: "Discriminant decides it: {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Compute the discriminant b^2 - 4ac.", Nudge: "Watch the signs."},
				{Level: 2, Hint: "Positive means two distinct real roots, zero means equal roots.", Nudge: "Negative means no real roots."},
			},
			Marks: 2,
		},
		{
			Topic:        "roots of a quadratic",
			TemplateText: "Solve x^2 - {s}x + {p} = 0 given that both roots are integers.",
			Variables: map[string]pattern.VariableRule{
				"r1": intRange(1, 9),
				"r2": intRange(1, 9),
				"s":  derivedFrom("r1 + r2"),
				"p":  derivedFrom("r1 * r2"),
			},
			Solver:          "pair(max(r1, r2), min(r1, r2))",
			AnswerTemplate:  "The roots are {answer}.",
			ValidationRules: []string{"r1 != r2"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Look for two numbers with the given sum and product.", Nudge: "List factor pairs of the constant term."},
			},
			Marks: 3,
		},
	},
	"arithmetic_progressions": {
		{
			Topic:        "nth term",
			TemplateText: "Find the {n}th term of the AP with first term {a} and common difference {d}.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(-10, 20),
				"d": intRange(1, 9),
				"n": intRange(5, 30),
			},
			Solver:         "a + (n - 1) * d",
			AnswerTemplate: "a + (n-1)d = {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "The nth term is a + (n-1)d.", Nudge: "Substitute and simplify."},
			},
			Marks: 2,
		},
		{
			Topic:        "sum of first n terms",
			TemplateText: "Find the sum of the first {n} terms of the AP with first term {a} and common difference {d}.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(1, 15),
				"d": intRange(1, 6),
				"n": intRange(4, 25),
			},
			Solver:         "(n * (2*a + (n - 1) * d)) / 2",
			AnswerTemplate: "S_n = n/2 [2a + (n-1)d] = {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Use S_n = n/2 [2a + (n-1)d].", Nudge: "Compute the bracket first."},
			},
			Marks: 3,
		},
	},
	"trigonometry": {
		{
			Topic:        "evaluate ratios",
			TemplateText: "Evaluate sin({angle}) + cos({angle}) for the standard angle {angle} degrees.",
			Variables: map[string]pattern.VariableRule{
				"angle": choiceOf(ints(0, 30, 45, 60, 90)...),
			},
			Solver:         "round(sin(angle) + cos(angle))",
			AnswerTemplate: "sin + cos = {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Recall the standard-angle table.", Nudge: "sin 30 = 0.5, cos 60 = 0.5."},
			},
			Marks: 1,
		},
	},
	"coordinate_geometry": {
		{
			Topic:        "distance formula",
			TemplateText: "Find the distance between the points ({x1}, {y1}) and ({x2}, {y2}).",
			Variables: map[string]pattern.VariableRule{
				"x1": intRange(-8, 8),
				"y1": intRange(-8, 8),
				"x2": intRange(-8, 8),
				"y2": intRange(-8, 8),
			},
			Solver:          "round(sqrt(pow(x2 - x1, 2) + pow(y2 - y1, 2)))",
			AnswerTemplate:  "Distance = {answer} units.",
			ValidationRules: []string{"x1 != x2 || y1 != y2"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Use sqrt((x2-x1)^2 + (y2-y1)^2).", Nudge: "Square the differences first."},
			},
			Marks: 2,
		},
	},
	"probability": {
		{
			Topic:        "single event",
			TemplateText: "A bag contains {total} balls, of which {favorable} are red. One ball is drawn at random. What is the probability it is red?",
			Variables: map[string]pattern.VariableRule{
				"total":     intRange(5, 30),
				"favorable": intRange(1, 25),
			},
			Solver:          "frac(favorable, total)",
			AnswerTemplate:  "P(red) = {answer}.",
			ValidationRules: []string{"favorable < total"},
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Probability = favorable outcomes / total outcomes.", Nudge: "Reduce the fraction."},
			},
			Marks: 1,
		},
	},
	"statistics": {
		{
			Topic:        "mean of observations",
			TemplateText: "Find the mean of the observations {a}, {b}, {c}, {d} and {e}.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(2, 40),
				"b": intRange(2, 40),
				"c": intRange(2, 40),
				"d": intRange(2, 40),
				"e": intRange(2, 40),
			},
			Solver:         "round((a + b + c + d + e) / 5)",
			AnswerTemplate: "Mean = {answer}.",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Add the observations and divide by their count.", Nudge: "There are 5 observations."},
			},
			Marks: 2,
		},
	},
	"arithmetic": {
		{
			Topic:        "basic operations",
			TemplateText: "Compute {a} * {b} + {c}.",
			Variables: map[string]pattern.VariableRule{
				"a": intRange(2, 20),
				"b": intRange(2, 20),
				"c": intRange(1, 50),
			},
			Solver:         "a * b + c",
			AnswerTemplate: "{answer}",
			Hints: []pattern.Hint{
				{Level: 1, Hint: "Multiply before adding.", Nudge: "Order of operations."},
			},
			Marks: 1,
		},
	},
}

// familyFor resolves a chapter name to its blueprint family, falling
// back to plain arithmetic for chapters with no dedicated catalogue.
func familyFor(chapter string) []blueprint {
	slug := ChapterSlug(chapter)
	switch {
	case strings.Contains(slug, "real"):
		return families["real_numbers"]
	case strings.Contains(slug, "polynomial"):
		return families["polynomials"]
	case strings.Contains(slug, "linear"):
		return families["linear_equations"]
	case strings.Contains(slug, "quadratic"):
		return families["quadratic_equations"]
	case strings.Contains(slug, "progression"):
		return families["arithmetic_progressions"]
	case strings.Contains(slug, "trigonometry"):
		return families["trigonometry"]
	case strings.Contains(slug, "coordinate"):
		return families["coordinate_geometry"]
	case strings.Contains(slug, "probability"):
		return families["probability"]
	case strings.Contains(slug, "statistics"):
		return families["statistics"]
	default:
		return families["arithmetic"]
	}
}
