// Package engine runs the generation pipeline: pick a pattern, sample
// variables, solve deterministically, render, optionally wrap in
// narrative, and fingerprint the result.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/Roand-7/Lokaah-sub001/internal/augment"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/Roand-7/Lokaah-sub001/internal/render"
	"github.com/Roand-7/Lokaah-sub001/internal/sampler"
	"github.com/Roand-7/Lokaah-sub001/internal/solver"
	"github.com/Roand-7/Lokaah-sub001/internal/store"
)

// Instance is one ephemeral generated question. Created per request and
// discarded unless the caller persists it externally.
type Instance struct {
	PatternID    string             `json:"pattern_id"`
	Topic        string             `json:"topic"`
	Chapter      string             `json:"chapter"`
	Marks        int                `json:"marks"`
	Difficulty   pattern.Difficulty `json:"difficulty"`
	Assignment   sampler.Assignment `json:"-"`
	Answer       solver.Value       `json:"-"`
	QuestionText string             `json:"question_text"`
	AnswerText   string             `json:"answer_text"`
	Fingerprint  string             `json:"fingerprint"`
	Duplicate    bool               `json:"duplicate,omitempty"`
	Scenario     *augment.Envelope  `json:"scenario,omitempty"`
}

// Config bounds the engine's retry behavior.
type Config struct {
	// MaxDiversityRetries is how many fresh draws the engine attempts
	// while the fingerprint is a within-session duplicate. After the
	// budget a duplicate is accepted: availability over novelty.
	MaxDiversityRetries int
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{MaxDiversityRetries: 5}
}

// Options carries the engine's optional collaborators.
type Options struct {
	// Augmenter, when set, wraps each instance in narrative.
	Augmenter *augment.Augmenter

	// Events receives generation and mismatch events. Nil discards.
	Events store.EventLog

	Config Config
}

// Engine generates question instances from a loaded pattern store. The
// store is read-only, so one engine serves concurrent sessions.
type Engine struct {
	store     *pattern.Store
	augmenter *augment.Augmenter
	events    store.EventLog
	config    Config
}

// New creates an Engine over the given store.
func New(st *pattern.Store, opts Options) *Engine {
	if opts.Events == nil {
		opts.Events = store.NopLog{}
	}
	if opts.Config.MaxDiversityRetries == 0 {
		opts.Config = DefaultConfig()
	}
	return &Engine{
		store:     st,
		augmenter: opts.Augmenter,
		events:    opts.Events,
		config:    opts.Config,
	}
}

// Generate produces one question instance for the topic. hint, when
// non-empty, biases pattern selection toward ids containing a hint
// token. The computed answer derives only from the sampled assignment
// and the pattern's solver expression, never from narrative text.
func (e *Engine) Generate(ctx context.Context, sess *Session, topic, hint string) (*Instance, error) {
	def, err := e.store.SelectCandidate(topic, hint, sess.RNG())
	if err != nil {
		return nil, err
	}

	var (
		assignment sampler.Assignment
		answer     solver.Value
		fp         string
	)
	for attempt := 0; ; attempt++ {
		assignment, err = sampler.Sample(def.Variables, def.ValidationRules, sess.RNG())
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", def.ID, err)
		}
		answer, err = solver.Evaluate(def.SolverExpression, assignment)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", def.ID, err)
		}
		fp = Fingerprint(def.ID, assignment)
		if !sess.Seen(fp) || attempt >= e.config.MaxDiversityRetries {
			break
		}
	}

	questionText, err := render.Render(def.TemplateText, assignment)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", def.ID, err)
	}
	answerText, err := e.renderAnswer(def, assignment, answer)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", def.ID, err)
	}

	inst := &Instance{
		PatternID:    def.ID,
		Topic:        def.Topic,
		Chapter:      def.Chapter,
		Marks:        def.Marks,
		Difficulty:   def.Difficulty,
		Assignment:   assignment,
		Answer:       answer,
		QuestionText: questionText,
		AnswerText:   answerText,
		Fingerprint:  fp,
	}

	mismatch := e.augmentInstance(ctx, def, inst)

	// The request can be abandoned at the augmenter call with no side
	// effects; registration is the only mutation and it happens last.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inst.Duplicate = !sess.CheckAndRegister(fp)
	if inst.Duplicate {
		fmt.Fprintf(os.Stderr, "warning: diversity budget exhausted for pattern %s, accepting duplicate\n", def.ID)
	}

	ev := store.GenerationEvent{
		SessionID:   sess.ID,
		PatternID:   def.ID,
		Fingerprint: fp,
		Duplicate:   inst.Duplicate,
		Augmented:   inst.Scenario != nil && inst.Scenario.Narrative,
		Mismatch:    mismatch,
	}
	if logErr := e.events.RecordGeneration(ctx, ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log generation: %v\n", logErr)
	}

	return inst, nil
}

// renderAnswer renders the answer template with the assignment plus the
// computed answer bound as {answer}. An empty template falls back to
// the bare canonical answer.
func (e *Engine) renderAnswer(def *pattern.Definition, assignment sampler.Assignment, answer solver.Value) (string, error) {
	if def.AnswerTemplate == "" {
		return answer.String(), nil
	}
	bound := make(sampler.Assignment, len(assignment)+1)
	for k, v := range assignment {
		bound[k] = v
	}
	bound["answer"] = answer
	return render.Render(def.AnswerTemplate, bound)
}

// augmentInstance attaches a narrative envelope when an augmenter is
// configured. A provider failure degrades to the deterministic
// fallback; a mismatched final answer is overridden and recorded. The
// return reports whether a mismatch occurred.
func (e *Engine) augmentInstance(ctx context.Context, def *pattern.Definition, inst *Instance) bool {
	if e.augmenter == nil {
		return false
	}

	env, mismatch, err := e.augmenter.Wrap(ctx, augment.Request{
		ScenarioSummary: inst.QuestionText,
		Chapter:         def.Chapter,
		Marks:           def.Marks,
		ComputedAnswer:  inst.Answer.String(),
	})
	if err != nil {
		inst.Scenario = augment.Fallback(inst.QuestionText, inst.Answer.String(), def.Chapter, def.SocraticHints)
		return false
	}
	if len(env.Hints) == 0 {
		env.Hints = def.SocraticHints
	}
	inst.Scenario = env

	if mismatch != nil {
		ev := store.MismatchEvent{
			PatternID: def.ID,
			Expected:  mismatch.Expected,
			Got:       mismatch.Got,
		}
		if logErr := e.events.RecordMismatch(ctx, ev); logErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to log mismatch: %v\n", logErr)
		}
	}
	return mismatch != nil
}
