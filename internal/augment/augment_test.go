package augment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
)

func goodEnvelopeJSON(finalAnswer string) json.RawMessage {
	env := map[string]any{
		"question_text":  "A gardener plants 36 rose bushes in rows...",
		"solution_steps": []string{"Find the HCF of the two counts.", "HCF(36, 48) = 12."},
		"final_answer":   finalAnswer,
		"hints": []map[string]any{
			{"level": 1, "hint": "Think about common factors.", "nudge": "List the factors of 36."},
			{"level": 2, "hint": "Use prime factorization.", "nudge": "36 = 2^2 * 3^2."},
		},
	}
	data, _ := json.Marshal(env)
	return data
}

func testRequest() Request {
	return Request{
		ScenarioSummary: "Find the HCF of 36 and 48.",
		Chapter:         "Real Numbers",
		Marks:           3,
		ComputedAnswer:  "12",
	}
}

func TestWrap_AgreeingAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: goodEnvelopeJSON("12")})
	a := New(mock, DefaultConfig())

	env, mismatch, err := a.Wrap(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mismatch != nil {
		t.Fatalf("unexpected mismatch: %+v", mismatch)
	}
	if env.FinalAnswer != "12" {
		t.Errorf("final answer = %q, want 12", env.FinalAnswer)
	}
	if !env.Narrative {
		t.Error("narrative flag not set")
	}
	if env.ContextTag != "real-numbers" {
		t.Errorf("context tag = %q, want real-numbers", env.ContextTag)
	}
	if len(env.Hints) != 2 {
		t.Errorf("hints = %d, want 2", len(env.Hints))
	}
}

func TestWrap_MismatchOverridden(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: goodEnvelopeJSON("13")})
	a := New(mock, DefaultConfig())

	env, mismatch, err := a.Wrap(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mismatch == nil {
		t.Fatal("expected mismatch")
	}
	if mismatch.Expected != "12" || mismatch.Got != "13" {
		t.Errorf("mismatch = %+v", mismatch)
	}
	if env.FinalAnswer != "12" {
		t.Errorf("final answer = %q, want computed 12", env.FinalAnswer)
	}
}

func TestWrap_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue errors
	a := New(mock, DefaultConfig())

	_, _, err := a.Wrap(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
}

func TestWrap_GarbageContent(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"not an object"`)})
	a := New(mock, DefaultConfig())

	if _, _, err := a.Wrap(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for unparseable envelope")
	}
}

func TestFallback(t *testing.T) {
	hints := []pattern.Hint{{Level: 1, Hint: "h", Nudge: "n"}}
	env := Fallback("Find the HCF of 36 and 48.", "12", "Real Numbers", hints)

	if env.Narrative {
		t.Error("fallback marked narrative")
	}
	if env.FinalAnswer != "12" {
		t.Errorf("final answer = %q", env.FinalAnswer)
	}
	if env.ContextTag != "real-numbers" {
		t.Errorf("context tag = %q", env.ContextTag)
	}
	if len(env.Hints) != 1 {
		t.Errorf("hints = %d, want pattern ladder", len(env.Hints))
	}
}

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		computed, got string
		want          bool
	}{
		{"12", "12", true},
		{" 12 ", "12", true},
		{"12", "13", false},
		{"2.5", "2.5004", true},
		{"2.5", "2.51", false},
		{"Terminating", "terminating", true},
		{"Terminating", "Non-Terminating Repeating", false},
		{"1/2", "1/2", true},
		{"1/2", "0.5", false}, // fraction text is not parsed as a number
	}

	for _, tt := range tests {
		if got := AnswersMatch(tt.computed, tt.got); got != tt.want {
			t.Errorf("AnswersMatch(%q, %q) = %v, want %v", tt.computed, tt.got, got, tt.want)
		}
	}
}
