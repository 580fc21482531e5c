// Package augment wraps a deterministically generated question in
// model-written narrative. The narrative layer can never win: the
// displayed answer always comes from the solver, and any disagreement
// from the model is overridden and reported as a mismatch.
package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
)

// Request is the fixed input contract for the narrative collaborator.
type Request struct {
	ScenarioSummary string `json:"scenario_summary"`
	Chapter         string `json:"chapter"`
	Marks           int    `json:"marks"`
	ComputedAnswer  string `json:"computed_answer"`
}

// Envelope is the narrative wrapper bound 1:1 to a question instance.
// FinalAnswer always embeds the computed answer verbatim by the time
// the envelope leaves this package.
type Envelope struct {
	QuestionText  string         `json:"question_text"`
	SolutionSteps []string       `json:"solution_steps"`
	FinalAnswer   string         `json:"final_answer"`
	Hints         []pattern.Hint `json:"hints"`
	ContextTag    string         `json:"context_tag"`
	Narrative     bool           `json:"narrative"`
}

// Config tunes the augmenter call.
type Config struct {
	// Timeout bounds one narrative request. On expiry the caller falls
	// back to the deterministic rendering.
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard augmenter settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.8,
	}
}

// Augmenter calls the narrative provider and enforces the answer
// post-condition.
type Augmenter struct {
	provider llm.Provider
	config   Config
}

// New creates an Augmenter over the given provider.
func New(provider llm.Provider, cfg Config) *Augmenter {
	return &Augmenter{provider: provider, config: cfg}
}

const systemPrompt = `You are an exam-question writer. You receive a dry mathematics question summary together with its already-computed answer, and you wrap it in a short real-world story.

Rules:
- The mathematics must stay exactly the same: same quantities, same operation, same answer.
- final_answer must repeat the provided computed answer verbatim. Never recompute, never "correct" it.
- solution_steps walk from the story back to the computation, one step per entry.
- hints form a ladder from gentle nudge (level 1) to near-answer (level 3).
- Plain ASCII text. No LaTeX, no markdown.`

// envelopeSchema is the fixed response contract, enforced by the
// provider's schema validation before Wrap ever sees the content.
var envelopeSchema = &llm.Schema{
	Name:        "scenario-envelope",
	Description: "A narrative wrapping of a math question with solution steps and hints",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The narrative question shown to the student",
			},
			"solution_steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Worked solution, one step per entry",
			},
			"final_answer": map[string]any{
				"type":        "string",
				"description": "Must repeat the provided computed answer verbatim",
			},
			"hints": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"level": map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
						"hint":  map[string]any{"type": "string"},
						"nudge": map[string]any{"type": "string"},
					},
					"required":             []any{"level", "hint", "nudge"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"question_text", "solution_steps", "final_answer", "hints"},
		"additionalProperties": false,
	},
}

// Mismatch reports that the model's final_answer disagreed with the
// computed answer. The envelope is already overridden when a Mismatch
// is returned; this carries what the model claimed, for the event log.
type Mismatch struct {
	Expected string
	Got      string
}

// Wrap requests a narrative envelope for the question. A non-nil
// Mismatch means the model's final_answer disagreed with the computed
// answer and was overridden in the returned envelope. Any transport,
// timeout or schema failure is returned as an error so the caller can
// fall back; Wrap itself never degrades the answer.
func (a *Augmenter) Wrap(ctx context.Context, req Request) (*Envelope, *Mismatch, error) {
	ctx = llm.WithPurpose(ctx, "scenario")
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req)},
		},
		Schema:      envelopeSchema,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("narrative request: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(resp.Content, &env); err != nil {
		return nil, nil, fmt.Errorf("parse narrative response: %w", err)
	}
	env.ContextTag = contextTag(req.Chapter)
	env.Narrative = true

	var mismatch *Mismatch
	if !AnswersMatch(req.ComputedAnswer, env.FinalAnswer) {
		mismatch = &Mismatch{Expected: req.ComputedAnswer, Got: env.FinalAnswer}
		env.FinalAnswer = req.ComputedAnswer
	}
	return &env, mismatch, nil
}

// Fallback builds the minimal deterministic envelope: rendered template
// plus computed answer, pattern hints, no narrative. Used whenever the
// provider is unavailable, times out, or returns garbage.
func Fallback(questionText, computedAnswer, chapter string, hints []pattern.Hint) *Envelope {
	return &Envelope{
		QuestionText: questionText,
		FinalAnswer:  computedAnswer,
		Hints:        hints,
		ContextTag:   contextTag(chapter),
		Narrative:    false,
	}
}

func buildUserMessage(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question summary: %s\n", req.ScenarioSummary)
	fmt.Fprintf(&b, "Chapter: %s\n", req.Chapter)
	fmt.Fprintf(&b, "Marks: %d\n", req.Marks)
	fmt.Fprintf(&b, "Computed answer: %s\n", req.ComputedAnswer)
	return b.String()
}

func contextTag(chapter string) string {
	tag := strings.ToLower(strings.TrimSpace(chapter))
	return strings.ReplaceAll(tag, " ", "-")
}

// answerTolerance is the numeric slack when both answers parse as
// numbers, matching the solver's canonical rounding.
const answerTolerance = 1e-3

// AnswersMatch reports whether the model's answer agrees with the
// computed one: exact after trimming (case-insensitive for labels), or
// within tolerance when both sides are numeric.
func AnswersMatch(computed, got string) bool {
	computed = strings.TrimSpace(computed)
	got = strings.TrimSpace(got)
	if strings.EqualFold(computed, got) {
		return true
	}
	cf, cerr := strconv.ParseFloat(computed, 64)
	gf, gerr := strconv.ParseFloat(got, 64)
	if cerr == nil && gerr == nil {
		return math.Abs(cf-gf) <= answerTolerance
	}
	return false
}
