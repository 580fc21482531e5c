package pattern

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

const sampleCorpus = `[
	{
		"pattern_id": "real_numbers_001",
		"topic": "lcm and hcf",
		"chapter": "Real Numbers",
		"marks": 3,
		"difficulty": "Easy",
		"template_text": "Find the HCF of {a} and {b}.",
		"variables": {
			"a": {"kind": "range", "min": 10, "max": 99},
			"b": {"kind": "range", "min": 10, "max": 99}
		},
		"solver_expression": "gcd(a, b)",
		"answer_template": "HCF = {answer}",
		"validation_rules": ["a != b"]
	},
	{
		"pattern_id": "real_numbers_002",
		"topic": "lcm and hcf",
		"chapter": "Real Numbers",
		"marks": 2,
		"difficulty": "Medium",
		"template_text": "Find the LCM of {a} and {b}.",
		"variables": {
			"a": {"kind": "range", "min": 2, "max": 20},
			"b": {"kind": "range", "min": 2, "max": 20}
		},
		"solver_expression": "lcm(a, b)",
		"answer_template": "LCM = {answer}"
	},
	{
		"pattern_id": "broken_001",
		"topic": "lcm and hcf",
		"template_text": "No solver here: {a}.",
		"variables": {"a": {"kind": "range", "min": 1, "max": 5}},
		"solver_expression": ""
	},
	{
		"pattern_id": "hostile_001",
		"topic": "lcm and hcf",
		"template_text": "Escape attempt {a}.",
		"variables": {"a": {"kind": "range", "min": 1, "max": 5}},
		"solver_expression": "os.Exit(1)"
	}
]`

func loadSample(t *testing.T) *Store {
	t.Helper()
	st := NewStore()
	if err := st.Load("test.json", strings.NewReader(sampleCorpus)); err != nil {
		t.Fatalf("load: %v", err)
	}
	return st
}

func TestLoad_SkipsMalformedRecords(t *testing.T) {
	st := loadSample(t)

	if st.Len() != 2 {
		t.Fatalf("loaded %d patterns, want 2", st.Len())
	}
	warnings := st.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(warnings))
	}
	if warnings[0].PatternID != "broken_001" {
		t.Errorf("first warning for %q, want broken_001", warnings[0].PatternID)
	}
	if !strings.Contains(warnings[1].Reason, "solver_expression") {
		t.Errorf("hostile record reason = %q, want sandbox rejection", warnings[1].Reason)
	}
}

func TestLoad_NotAnArray(t *testing.T) {
	st := NewStore()
	if err := st.Load("bad.json", strings.NewReader(`{"pattern_id": "x"}`)); err == nil {
		t.Fatal("expected error for non-array corpus")
	}
}

func TestLoad_DuplicateIDKeepsFirst(t *testing.T) {
	st := loadSample(t)
	if err := st.Load("again.json", strings.NewReader(sampleCorpus)); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if st.Len() != 2 {
		t.Errorf("after duplicate load Len = %d, want 2", st.Len())
	}
}

func TestByTopic_InsertionOrder(t *testing.T) {
	st := loadSample(t)

	defs := st.ByTopic("LCM and HCF")
	if len(defs) != 2 {
		t.Fatalf("got %d patterns, want 2", len(defs))
	}
	if defs[0].ID != "real_numbers_001" || defs[1].ID != "real_numbers_002" {
		t.Errorf("order = %s, %s", defs[0].ID, defs[1].ID)
	}
}

func TestByID(t *testing.T) {
	st := loadSample(t)

	def, err := st.ByID("real_numbers_002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Marks != 2 {
		t.Errorf("marks = %d, want 2", def.Marks)
	}

	_, err = st.ByID("nope")
	var nf *ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectCandidate_HintPreference(t *testing.T) {
	st := loadSample(t)
	rng := rand.New(rand.NewPCG(1, 1))

	def, err := st.SelectCandidate("lcm and hcf", "pattern 002 please", rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != "real_numbers_002" {
		t.Errorf("hint selected %q, want real_numbers_002", def.ID)
	}
}

func TestSelectCandidate_CorpusOrderBreaksMultiTokenTies(t *testing.T) {
	st := loadSample(t)
	rng := rand.New(rand.NewPCG(1, 1))

	// Both tokens match a pattern; the earlier corpus record wins even
	// though its token comes later in the hint.
	def, err := st.SelectCandidate("lcm and hcf", "002 or maybe 001", rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != "real_numbers_001" {
		t.Errorf("selected %q, want real_numbers_001 (corpus order tie-break)", def.ID)
	}
}

func TestSelectCandidate_UnknownTopic(t *testing.T) {
	st := loadSample(t)
	rng := rand.New(rand.NewPCG(1, 1))

	_, err := st.SelectCandidate("calculus", "", rng)
	var nf *ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectCandidate_UniformWithoutHint(t *testing.T) {
	st := loadSample(t)
	rng := rand.New(rand.NewPCG(7, 7))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		def, err := st.SelectCandidate("lcm and hcf", "", rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[def.ID] = true
	}
	if len(seen) != 2 {
		t.Errorf("50 unhinted draws hit %d patterns, want both", len(seen))
	}
}

func TestValidate_CyclicDerivedVariables(t *testing.T) {
	def := &Definition{
		ID:           "cyclic_001",
		Topic:        "test",
		TemplateText: "{a} {b}",
		Variables: map[string]VariableRule{
			"a": {Kind: RuleDerived, Formula: "b + 1"},
			"b": {Kind: RuleDerived, Formula: "a + 1"},
		},
		SolverExpression: "a + b",
	}
	reason := Validate(def)
	if reason == "" {
		t.Fatal("cycle accepted")
	}
	if !strings.Contains(reason, "cyclic") {
		t.Errorf("reason = %q, want cyclic dependency mention", reason)
	}
}

func TestValidate_UndeclaredSolverVariable(t *testing.T) {
	def := &Definition{
		ID:           "undeclared_001",
		Topic:        "test",
		TemplateText: "{a}",
		Variables: map[string]VariableRule{
			"a": {Kind: RuleRange, Min: 1, Max: 5},
		},
		SolverExpression: "a + mystery",
	}
	if Validate(def) == "" {
		t.Fatal("undeclared solver variable accepted")
	}
}

func TestTopics(t *testing.T) {
	st := loadSample(t)
	topics := st.Topics()
	if len(topics) != 1 || topics[0] != "lcm and hcf" {
		t.Errorf("topics = %v", topics)
	}
}
