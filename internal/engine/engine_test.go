package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Roand-7/Lokaah-sub001/internal/augment"
	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/Roand-7/Lokaah-sub001/internal/solver"
	"github.com/Roand-7/Lokaah-sub001/internal/store"
)

// recordingLog captures events in memory for assertions.
type recordingLog struct {
	generations []store.GenerationEvent
	mismatches  []store.MismatchEvent
}

func (l *recordingLog) RecordLLMRequest(context.Context, store.LLMRequestEvent) error { return nil }

func (l *recordingLog) RecordGeneration(_ context.Context, ev store.GenerationEvent) error {
	l.generations = append(l.generations, ev)
	return nil
}

func (l *recordingLog) RecordMismatch(_ context.Context, ev store.MismatchEvent) error {
	l.mismatches = append(l.mismatches, ev)
	return nil
}

const lcmHcfCorpus = `[{
	"pattern_id": "real_numbers_001",
	"topic": "lcm and hcf",
	"chapter": "Real Numbers",
	"marks": 3,
	"difficulty": "Easy",
	"template_text": "Find the LCM and HCF of {a} and {b}.",
	"variables": {
		"a": {"kind": "range", "min": 12, "max": 96},
		"b": {"kind": "range", "min": 12, "max": 96}
	},
	"solver_expression": "pair(lcm(a, b), gcd(a, b))",
	"answer_template": "LCM and HCF are {answer}.",
	"validation_rules": ["a != b"]
}]`

const quadraticCorpus = `[{
	"pattern_id": "quadratic_nature_001",
	"topic": "nature of roots",
	"chapter": "Quadratic Equations",
	"marks": 2,
	"difficulty": "Medium",
	"template_text": "Find the nature of the roots of {a}x^2 + {b}x + {c} = 0.",
	"variables": {
		"a": {"kind": "choice", "values": [%s]},
		"b": {"kind": "choice", "values": [%s]},
		"c": {"kind": "choice", "values": [%s]},
		"d": {"kind": "derived", "formula": "b*b - 4*a*c"}
	},
	"solver_expression": "if(d > 0, \"Real & Distinct\", if(d == 0, \"Real & Equal\", \"No Real Roots\"))"
}]`

func loadCorpus(t *testing.T, corpus string) *pattern.Store {
	t.Helper()
	st := pattern.NewStore()
	if err := st.Load("test.json", strings.NewReader(corpus)); err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	if len(st.Warnings()) > 0 {
		t.Fatalf("corpus warnings: %v", st.Warnings()[0])
	}
	return st
}

func TestGenerate_LCMHCFProperty(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	eng := New(st, Options{})
	sess := NewSession(11)

	for i := 0; i < 20; i++ {
		inst, err := eng.Generate(context.Background(), sess, "lcm and hcf", "")
		if err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
		a := inst.Assignment["a"].Int
		b := inst.Assignment["b"].Int
		if inst.Answer.Kind != solver.KindPair {
			t.Fatalf("answer kind = %v, want pair", inst.Answer.Kind)
		}
		lcm, hcf := inst.Answer.A.Int, inst.Answer.B.Int
		if lcm*hcf != a*b {
			t.Fatalf("lcm*hcf = %d, want a*b = %d (a=%d b=%d)", lcm*hcf, a*b, a, b)
		}
		if a == b {
			t.Fatalf("validation rule a != b violated")
		}
	}
}

func TestGenerate_QuadraticNature(t *testing.T) {
	tests := []struct {
		a, b, c string
		want    string
	}{
		{"1", "-5", "6", "Real & Distinct"},
		{"1", "2", "1", "Real & Equal"},
		{"1", "0", "1", "No Real Roots"},
	}

	for _, tt := range tests {
		st := loadCorpus(t, quadraticNatureCorpus(tt.a, tt.b, tt.c))
		eng := New(st, Options{})
		sess := NewSession(1)

		inst, err := eng.Generate(context.Background(), sess, "nature of roots", "")
		if err != nil {
			t.Fatalf("generate (%s, %s, %s): %v", tt.a, tt.b, tt.c, err)
		}
		if inst.AnswerText != tt.want {
			t.Errorf("coefficients (%s, %s, %s): answer = %q, want %q", tt.a, tt.b, tt.c, inst.AnswerText, tt.want)
		}
	}
}

func quadraticNatureCorpus(a, b, c string) string {
	corpus := quadraticCorpus
	corpus = strings.Replace(corpus, "%s", a, 1)
	corpus = strings.Replace(corpus, "%s", b, 1)
	corpus = strings.Replace(corpus, "%s", c, 1)
	return corpus
}

func TestGenerate_QuestionTextRendered(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	eng := New(st, Options{})
	sess := NewSession(3)

	inst, err := eng.Generate(context.Background(), sess, "lcm and hcf", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(inst.QuestionText, "{") {
		t.Errorf("question has unresolved placeholders: %q", inst.QuestionText)
	}
	if !strings.HasPrefix(inst.AnswerText, "LCM and HCF are ") {
		t.Errorf("answer template not applied: %q", inst.AnswerText)
	}
}

func TestGenerate_DiversityExhaustionAcceptsDuplicate(t *testing.T) {
	// A single-point domain: every draw is the same fingerprint.
	corpus := `[{
		"pattern_id": "tiny_001",
		"topic": "tiny",
		"chapter": "Test",
		"marks": 1,
		"difficulty": "Easy",
		"template_text": "What is {a} + {a}?",
		"variables": {"a": {"kind": "range", "min": 4, "max": 4}},
		"solver_expression": "a + a"
	}]`
	st := loadCorpus(t, corpus)
	log := &recordingLog{}
	eng := New(st, Options{Events: log, Config: Config{MaxDiversityRetries: 3}})
	sess := NewSession(5)

	first, err := eng.Generate(context.Background(), sess, "tiny", "")
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if first.Duplicate {
		t.Error("first instance marked duplicate")
	}

	second, err := eng.Generate(context.Background(), sess, "tiny", "")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if !second.Duplicate {
		t.Error("exhausted retries should yield a flagged duplicate, not an error")
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprints differ: %q vs %q", first.Fingerprint, second.Fingerprint)
	}
	if len(log.generations) != 2 || !log.generations[1].Duplicate {
		t.Errorf("generation events = %+v", log.generations)
	}
}

func TestGenerate_UnknownTopic(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	eng := New(st, Options{})

	_, err := eng.Generate(context.Background(), NewSession(1), "calculus", "")
	if err == nil {
		t.Fatal("expected error for unknown topic")
	}
}

func TestGenerate_AugmentedAnswerOverrideOnMismatch(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	log := &recordingLog{}

	envelope := map[string]any{
		"question_text":  "Two bells toll every few minutes...",
		"solution_steps": []string{"Prime factorize both intervals."},
		"final_answer":   "999999, 1", // wrong on purpose
		"hints": []map[string]any{
			{"level": 1, "hint": "Think prime factors.", "nudge": "List factors of both."},
		},
	}
	content, _ := json.Marshal(envelope)
	mock := llm.NewMockProvider(llm.MockResponse{Content: content})

	eng := New(st, Options{
		Augmenter: augment.New(mock, augment.DefaultConfig()),
		Events:    log,
	})
	sess := NewSession(9)

	inst, err := eng.Generate(context.Background(), sess, "lcm and hcf", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inst.Scenario == nil {
		t.Fatal("scenario missing")
	}
	if inst.Scenario.FinalAnswer != inst.Answer.String() {
		t.Errorf("final answer %q not overridden to computed %q", inst.Scenario.FinalAnswer, inst.Answer.String())
	}
	if len(log.mismatches) != 1 {
		t.Fatalf("mismatch events = %d, want 1", len(log.mismatches))
	}
	if log.mismatches[0].Got != "999999, 1" {
		t.Errorf("mismatch Got = %q", log.mismatches[0].Got)
	}
	if len(log.generations) != 1 || !log.generations[0].Mismatch {
		t.Errorf("generation event mismatch flag not set: %+v", log.generations)
	}
}

func TestGenerate_FallbackWhenProviderFails(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	mock := llm.NewMockProvider() // empty queue: every call errors

	eng := New(st, Options{Augmenter: augment.New(mock, augment.DefaultConfig())})
	sess := NewSession(2)

	inst, err := eng.Generate(context.Background(), sess, "lcm and hcf", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inst.Scenario == nil {
		t.Fatal("fallback scenario missing")
	}
	if inst.Scenario.Narrative {
		t.Error("fallback envelope marked narrative")
	}
	if inst.Scenario.QuestionText != inst.QuestionText {
		t.Errorf("fallback question %q, want rendered template %q", inst.Scenario.QuestionText, inst.QuestionText)
	}
	if inst.Scenario.FinalAnswer != inst.Answer.String() {
		t.Errorf("fallback answer %q, want %q", inst.Scenario.FinalAnswer, inst.Answer.String())
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	st := loadCorpus(t, lcmHcfCorpus)
	eng := New(st, Options{})
	sess := NewSession(4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Generate(ctx, sess, "lcm and hcf", ""); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	// No fingerprint may be registered by an abandoned request.
	inst, err := eng.Generate(context.Background(), sess, "lcm and hcf", "")
	if err != nil {
		t.Fatalf("follow-up generate: %v", err)
	}
	if inst.Duplicate {
		t.Error("abandoned request leaked a fingerprint registration")
	}
}
