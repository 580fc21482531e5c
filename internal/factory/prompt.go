package factory

import (
	"fmt"
	"strings"
)

const systemPrompt = `You design procedural question patterns for a school mathematics exam generator. A pattern is NOT a single question: it is a template with variable-generation rules and a solver formula, from which thousands of concrete questions can be instantiated.

Rules:
- template_text uses {name} placeholders; every placeholder must have a rule in variables.
- Variable rules: {"kind":"range","min":N,"max":M} draws an integer; {"kind":"choice","values":[...]} picks one entry (numbers, "p/q" fraction strings, or labels); {"kind":"derived","formula":"..."} computes from other variables.
- solver_expression computes the answer from the variables. Allowed: + - * / % comparisons, and the functions abs, min, max, gcd, hcf, lcm, pow, sqrt, sin, cos, tan (degrees), floor, ceil, round, idiv, mod, frac, if(cond,a,b), pair(a,b). Nothing else exists. No loops, no assignments, no external names.
- Use if(...) with string results for classification answers, frac(p,q) for exact fractions, pair(a,b) for two-part answers.
- validation_rules are boolean predicates that reject degenerate draws (e.g. "b*b - 4*a*c >= 0", "a != b").
- Plain ASCII. No LaTeX.`

// buildUserMessage asks for count proposals covering one chapter.
func buildUserMessage(chapter string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter: %s\n", chapter)
	fmt.Fprintf(&b, "Patterns wanted: %d\n", count)
	b.WriteString("\nCover the chapter's main question families. Vary difficulty across Easy, Medium and Hard. Return a JSON array only.")
	return b.String()
}
