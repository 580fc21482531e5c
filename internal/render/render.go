// Package render substitutes sampled variable values into pattern
// template text.
package render

import (
	"fmt"
	"regexp"

	"github.com/Roand-7/Lokaah-sub001/internal/sampler"
)

// MissingVariableError reports a template placeholder with no value in
// the assignment. This is a corpus defect, surfaced to the caller.
type MissingVariableError struct {
	Name     string
	Template string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template references undeclared variable {%s}", e.Name)
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces every {name} placeholder with the canonical string
// form of its value: integers unformatted, floats at fixed precision,
// fractions as "p/q". Pure function: identical inputs always produce
// identical text.
func Render(template string, assignment sampler.Assignment) (string, error) {
	var missing *MissingVariableError
	out := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := assignment[name]
		if !ok {
			if missing == nil {
				missing = &MissingVariableError{Name: name, Template: template}
			}
			return match
		}
		return v.String()
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}
