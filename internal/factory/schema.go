package factory

import "github.com/Roand-7/Lokaah-sub001/internal/llm"

// proposalSchema is the canonical JSON array schema every generative
// pattern proposal must conform to.
var proposalSchema = &llm.Schema{
	Name:        "pattern-proposals",
	Description: "An array of procedural question patterns for one chapter",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type":        "string",
					"description": "Short topic key within the chapter, e.g. \"lcm and hcf\"",
				},
				"template_text": map[string]any{
					"type":        "string",
					"description": "Question text with {name} placeholders for every variable",
				},
				"variables": map[string]any{
					"type":        "object",
					"description": "Per-name generation rule: {kind:\"range\",min,max}, {kind:\"choice\",values:[...]}, or {kind:\"derived\",formula}",
					"additionalProperties": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"kind":    map[string]any{"type": "string", "enum": []any{"range", "choice", "derived"}},
							"min":     map[string]any{"type": "integer"},
							"max":     map[string]any{"type": "integer"},
							"values":  map[string]any{"type": "array"},
							"formula": map[string]any{"type": "string"},
						},
						"required": []any{"kind"},
					},
				},
				"solver_expression": map[string]any{
					"type":        "string",
					"description": "Formula over the variable names using only the whitelisted functions",
				},
				"answer_template": map[string]any{
					"type":        "string",
					"description": "Answer text; {answer} expands to the computed answer",
				},
				"marks": map[string]any{
					"type":    "integer",
					"minimum": 1,
					"maximum": 6,
				},
				"difficulty": map[string]any{
					"type": "string",
					"enum": []any{"Easy", "Medium", "Hard"},
				},
				"validation_rules": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Boolean predicates a sampled assignment must satisfy",
				},
				"socratic_hints": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"level": map[string]any{"type": "integer"},
							"hint":  map[string]any{"type": "string"},
							"nudge": map[string]any{"type": "string"},
						},
						"required": []any{"level", "hint", "nudge"},
					},
				},
			},
			"required": []any{"topic", "template_text", "variables", "solver_expression", "answer_template", "marks", "difficulty"},
		},
	},
}
