package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
)

func TestChapterSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Real Numbers", "real_numbers"},
		{"Pair of Linear Equations", "pair_of_linear_equations"},
		{"  Trigonometry  ", "trigonometry"},
		{"Arithmetic Progressions", "arithmetic_progressions"},
	}
	for _, tt := range tests {
		if got := ChapterSlug(tt.in); got != tt.want {
			t.Errorf("ChapterSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildCorpus_BlueprintsOnly(t *testing.T) {
	cfg := Config{
		Chapters:   []string{"Real Numbers", "Probability"},
		PerChapter: 4,
	}
	f := New(nil, cfg)

	defs, manifest, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 8 {
		t.Fatalf("got %d patterns, want 8", len(defs))
	}
	if manifest.AIGenerated != 0 || manifest.FallbackGenerated != 8 {
		t.Errorf("manifest counts ai=%d fallback=%d", manifest.AIGenerated, manifest.FallbackGenerated)
	}
	if manifest.GenerationMode != "fallback" {
		t.Errorf("mode = %q, want fallback", manifest.GenerationMode)
	}
	if manifest.TotalPatterns != 8 {
		t.Errorf("total = %d, want 8", manifest.TotalPatterns)
	}

	for i := 0; i < 4; i++ {
		want := fmt.Sprintf("real_numbers_%03d", i+1)
		if defs[i].ID != want {
			t.Errorf("pattern %d id = %q, want %q", i, defs[i].ID, want)
		}
		if defs[i].Chapter != "Real Numbers" {
			t.Errorf("pattern %d chapter = %q", i, defs[i].Chapter)
		}
	}

	// Every emitted pattern must already be load-ready.
	for i := range defs {
		if reason := pattern.Validate(&defs[i]); reason != "" {
			t.Errorf("pattern %s fails validation: %s", defs[i].ID, reason)
		}
	}
}

func TestBuildCorpus_DifficultyRotation(t *testing.T) {
	f := New(nil, Config{Chapters: []string{"Statistics"}, PerChapter: 4})
	defs, _, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []pattern.Difficulty{
		pattern.DifficultyEasy,
		pattern.DifficultyMedium,
		pattern.DifficultyHard,
		pattern.DifficultyMedium,
	}
	for i, def := range defs {
		if def.Difficulty != want[i] {
			t.Errorf("pattern %d difficulty = %s, want %s", i, def.Difficulty, want[i])
		}
	}
}

func proposalJSON(t *testing.T, proposals []map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(proposals)
	if err != nil {
		t.Fatalf("marshal proposals: %v", err)
	}
	return data
}

func validProposal() map[string]any {
	return map[string]any{
		"topic":         "lcm and hcf",
		"template_text": "Two alarms ring every {a} and {b} minutes. After how many minutes do they ring together?",
		"variables": map[string]any{
			"a": map[string]any{"kind": "range", "min": 2, "max": 12},
			"b": map[string]any{"kind": "range", "min": 2, "max": 12},
		},
		"solver_expression": "lcm(a, b)",
		"answer_template":   "They ring together after {answer} minutes.",
		"marks":             2,
		"difficulty":        "Easy",
	}
}

func TestBuildCorpus_MixesProposalsAndBackfill(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: proposalJSON(t, []map[string]any{validProposal()}),
	})
	f := New(mock, Config{Chapters: []string{"Real Numbers"}, PerChapter: 3})

	defs, manifest, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("got %d patterns, want 3", len(defs))
	}
	if manifest.AIGenerated != 1 || manifest.FallbackGenerated != 2 {
		t.Errorf("counts ai=%d fallback=%d, want 1 and 2", manifest.AIGenerated, manifest.FallbackGenerated)
	}
	if manifest.GenerationMode != "hybrid" {
		t.Errorf("mode = %q, want hybrid", manifest.GenerationMode)
	}
	if defs[0].SolverExpression != "lcm(a, b)" {
		t.Errorf("first pattern should be the proposal, got %q", defs[0].SolverExpression)
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", mock.CallCount())
	}
}

func TestBuildCorpus_DiscardsBadProposals(t *testing.T) {
	hostile := validProposal()
	hostile["solver_expression"] = `exec("rm -rf /")`

	missingTemplate := validProposal()
	missingTemplate["template_text"] = ""

	undeclared := validProposal()
	undeclared["solver_expression"] = "lcm(a, ghost)"

	mock := llm.NewMockProvider(llm.MockResponse{
		Content: proposalJSON(t, []map[string]any{hostile, missingTemplate, undeclared}),
	})
	f := New(mock, Config{Chapters: []string{"Real Numbers"}, PerChapter: 2})

	defs, manifest, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manifest.AIGenerated != 0 {
		t.Errorf("ai count = %d, want 0 (all proposals invalid)", manifest.AIGenerated)
	}
	if len(defs) != 2 {
		t.Errorf("got %d patterns, want exact backfill to 2", len(defs))
	}
}

func TestBuildCorpus_ProviderFailureStillDeliversCount(t *testing.T) {
	mock := llm.NewMockProvider() // every call errors
	f := New(mock, Config{Chapters: []string{"Trigonometry"}, PerChapter: 5})

	defs, manifest, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 5 {
		t.Errorf("got %d patterns, want 5", len(defs))
	}
	if manifest.GenerationMode != "fallback" {
		t.Errorf("mode = %q, want fallback", manifest.GenerationMode)
	}
}

func TestBuildCorpus_EveryDefaultChapterHasFamily(t *testing.T) {
	f := New(nil, Config{PerChapter: 2})
	defs, _, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2*len(DefaultChapters) {
		t.Errorf("got %d patterns, want %d", len(defs), 2*len(DefaultChapters))
	}

	byChapter := map[string]int{}
	for _, def := range defs {
		byChapter[def.Chapter]++
	}
	for _, chapter := range DefaultChapters {
		if byChapter[chapter] != 2 {
			t.Errorf("chapter %q has %d patterns, want 2", chapter, byChapter[chapter])
		}
	}
}

func TestWriteCorpus_LoadableByStore(t *testing.T) {
	f := New(nil, Config{Chapters: []string{"Real Numbers", "Polynomials"}, PerChapter: 3})
	defs, manifest, err := f.BuildCorpus(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	dir := t.TempDir()
	if err := WriteCorpus(dir, defs, manifest); err != nil {
		t.Fatalf("write: %v", err)
	}

	st := pattern.NewStore()
	if err := st.LoadDir(dir); err != nil {
		t.Fatalf("load back: %v", err)
	}
	if len(st.Warnings()) != 0 {
		t.Fatalf("written corpus has warnings: %v", st.Warnings()[0])
	}
	// corpus.json repeats the per-chapter files; dedupe keeps the count.
	if st.Len() != 6 {
		t.Errorf("store has %d patterns, want 6", st.Len())
	}
}
