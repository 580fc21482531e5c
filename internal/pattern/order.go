package pattern

import (
	"fmt"
	"sort"

	"github.com/Roand-7/Lokaah-sub001/internal/solver"
)

// OrderedNames returns the variable names in an order where every
// derived variable follows the variables its formula references
// (Kahn's algorithm over the rule graph). Ties break alphabetically so
// sampling order is deterministic. A cycle or a reference to an
// undeclared variable is a corpus defect.
func OrderedNames(vars map[string]VariableRule) ([]string, error) {
	inDegree := make(map[string]int, len(vars))
	dependents := make(map[string][]string)

	for name := range vars {
		inDegree[name] = 0
	}
	for name, rule := range vars {
		if rule.Kind != RuleDerived {
			continue
		}
		refs, err := solver.Idents(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		for _, ref := range refs {
			if _, ok := vars[ref]; !ok {
				return nil, fmt.Errorf("variable %q derives from undeclared variable %q", name, ref)
			}
			dependents[ref] = append(dependents[ref], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(vars))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, dep := range next {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(vars) {
		var cyclic []string
		for name, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("cyclic derived-variable dependency involving %v", cyclic)
	}
	return order, nil
}
