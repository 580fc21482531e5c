// Package factory builds the pattern corpus offline: generative
// proposals when a provider is available, deterministic blueprint
// backfill always, so every chapter ends up with exactly the requested
// pattern count.
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
)

// DefaultChapters is the class-10 mathematics syllabus the corpus
// covers when the caller does not narrow it down.
var DefaultChapters = []string{
	"Real Numbers",
	"Polynomials",
	"Pair of Linear Equations",
	"Quadratic Equations",
	"Arithmetic Progressions",
	"Coordinate Geometry",
	"Trigonometry",
	"Statistics",
	"Probability",
}

// Config controls a corpus build.
type Config struct {
	Chapters    []string
	PerChapter  int
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard build settings.
func DefaultConfig() Config {
	return Config{
		Chapters:    DefaultChapters,
		PerChapter:  10,
		MaxTokens:   4096,
		Temperature: 0.9,
	}
}

// Manifest summarizes one corpus build.
type Manifest struct {
	GeneratedAt        time.Time `json:"generated_at"`
	Chapters           []string  `json:"chapters"`
	PatternsPerChapter int       `json:"patterns_per_chapter"`
	TotalPatterns      int       `json:"total_patterns"`
	AIGenerated        int       `json:"ai_generated"`
	FallbackGenerated  int       `json:"fallback_generated"`
	GenerationMode     string    `json:"generation_mode"`
}

// Factory builds pattern corpora. The provider may be nil, in which
// case every pattern comes from the blueprint catalogue.
type Factory struct {
	provider llm.Provider
	config   Config
}

// New creates a Factory.
func New(provider llm.Provider, cfg Config) *Factory {
	if len(cfg.Chapters) == 0 {
		cfg.Chapters = DefaultChapters
	}
	if cfg.PerChapter <= 0 {
		cfg.PerChapter = DefaultConfig().PerChapter
	}
	return &Factory{provider: provider, config: cfg}
}

// BuildCorpus produces exactly PerChapter patterns for every chapter,
// regardless of generative availability, plus the build manifest.
func (f *Factory) BuildCorpus(ctx context.Context) ([]pattern.Definition, *Manifest, error) {
	var all []pattern.Definition
	aiCount, fallbackCount := 0, 0

	for _, chapter := range f.config.Chapters {
		defs, ai, fb, err := f.buildChapter(ctx, chapter)
		if err != nil {
			return nil, nil, fmt.Errorf("chapter %q: %w", chapter, err)
		}
		all = append(all, defs...)
		aiCount += ai
		fallbackCount += fb
	}

	manifest := &Manifest{
		GeneratedAt:        time.Now().UTC(),
		Chapters:           f.config.Chapters,
		PatternsPerChapter: f.config.PerChapter,
		TotalPatterns:      len(all),
		AIGenerated:        aiCount,
		FallbackGenerated:  fallbackCount,
		GenerationMode:     generationMode(aiCount, fallbackCount),
	}
	return all, manifest, nil
}

func generationMode(ai, fallback int) string {
	switch {
	case ai == 0:
		return "fallback"
	case fallback == 0:
		return "ai"
	default:
		return "hybrid"
	}
}

// buildChapter collects normalized AI proposals, then backfills from
// the chapter's blueprint family up to the target count.
func (f *Factory) buildChapter(ctx context.Context, chapter string) ([]pattern.Definition, int, int, error) {
	slug := ChapterSlug(chapter)
	defs := make([]pattern.Definition, 0, f.config.PerChapter)

	if f.provider != nil {
		for _, prop := range f.propose(ctx, chapter) {
			if len(defs) == f.config.PerChapter {
				break
			}
			def, ok := normalize(prop, chapter, patternID(slug, len(defs)))
			if !ok {
				continue
			}
			defs = append(defs, def)
		}
	}
	aiCount := len(defs)

	family := familyFor(chapter)
	for i := 0; len(defs) < f.config.PerChapter; i++ {
		bp := family[i%len(family)]
		def := pattern.Definition{
			ID:               patternID(slug, len(defs)),
			Topic:            bp.Topic,
			Chapter:          chapter,
			Marks:            bp.Marks,
			Difficulty:       difficultyRotation[i%len(difficultyRotation)],
			TemplateText:     bp.TemplateText,
			Variables:        bp.Variables,
			SolverExpression: bp.Solver,
			AnswerTemplate:   bp.AnswerTemplate,
			ValidationRules:  bp.ValidationRules,
			SocraticHints:    bp.Hints,
		}
		if reason := pattern.Validate(&def); reason != "" {
			return nil, 0, 0, fmt.Errorf("blueprint %q: %s", bp.Topic, reason)
		}
		defs = append(defs, def)
	}

	return defs, aiCount, len(defs) - aiCount, nil
}

// propose asks the provider for pattern proposals. Any failure returns
// nil: the blueprint backfill still guarantees the count.
func (f *Factory) propose(ctx context.Context, chapter string) []json.RawMessage {
	ctx = llm.WithPurpose(ctx, "corpus-build")

	resp, err := f.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(chapter, f.config.PerChapter)},
		},
		Schema:      proposalSchema,
		MaxTokens:   f.config.MaxTokens,
		Temperature: f.config.Temperature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: proposals for %q unavailable: %v\n", chapter, err)
		return nil
	}

	var proposals []json.RawMessage
	if err := json.Unmarshal(resp.Content, &proposals); err != nil {
		fmt.Fprintf(os.Stderr, "warning: proposals for %q unreadable: %v\n", chapter, err)
		return nil
	}
	return proposals
}

// proposal is the raw shape of one generative pattern proposal.
type proposal struct {
	Topic            string                          `json:"topic"`
	TemplateText     string                          `json:"template_text"`
	Variables        map[string]pattern.VariableRule `json:"variables"`
	SolverExpression string                          `json:"solver_expression"`
	AnswerTemplate   string                          `json:"answer_template"`
	Marks            int                             `json:"marks"`
	Difficulty       string                          `json:"difficulty"`
	ValidationRules  []string                        `json:"validation_rules"`
	SocraticHints    []pattern.Hint                  `json:"socratic_hints"`
}

// normalize converts one raw proposal into a validated definition.
// A proposal missing its template, variables or solver expression — or
// failing sandbox vetting — is discarded, never repaired.
func normalize(raw json.RawMessage, chapter, id string) (pattern.Definition, bool) {
	var p proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return pattern.Definition{}, false
	}

	def := pattern.Definition{
		ID:               id,
		Topic:            strings.TrimSpace(p.Topic),
		Chapter:          chapter,
		Marks:            p.Marks,
		Difficulty:       pattern.Difficulty(p.Difficulty),
		TemplateText:     strings.TrimSpace(p.TemplateText),
		Variables:        p.Variables,
		SolverExpression: strings.TrimSpace(p.SolverExpression),
		AnswerTemplate:   strings.TrimSpace(p.AnswerTemplate),
		ValidationRules:  p.ValidationRules,
		SocraticHints:    p.SocraticHints,
	}
	if def.Topic == "" {
		def.Topic = strings.ToLower(chapter)
	}
	if def.Marks <= 0 {
		def.Marks = 1
	}
	switch def.Difficulty {
	case pattern.DifficultyEasy, pattern.DifficultyMedium, pattern.DifficultyHard:
	default:
		def.Difficulty = pattern.DifficultyMedium
	}

	if reason := pattern.Validate(&def); reason != "" {
		return pattern.Definition{}, false
	}
	return def, true
}

// patternID builds the stable id for the pattern at the given index:
// "{chapterSlug}_{index:03d}", 1-based.
func patternID(slug string, index int) string {
	return fmt.Sprintf("%s_%03d", slug, index+1)
}

// ChapterSlug lowercases a chapter name and joins its words with
// underscores.
func ChapterSlug(chapter string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(chapter)))
	return strings.Join(fields, "_")
}

// WriteCorpus writes one JSON file per chapter, the combined corpus
// file, and the manifest into dir.
func WriteCorpus(dir string, defs []pattern.Definition, manifest *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("corpus dir: %w", err)
	}

	byChapter := make(map[string][]pattern.Definition)
	var chapterOrder []string
	for _, def := range defs {
		if _, seen := byChapter[def.Chapter]; !seen {
			chapterOrder = append(chapterOrder, def.Chapter)
		}
		byChapter[def.Chapter] = append(byChapter[def.Chapter], def)
	}

	for _, chapter := range chapterOrder {
		name := ChapterSlug(chapter) + ".json"
		if err := writeJSON(filepath.Join(dir, name), byChapter[chapter]); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(dir, "corpus.json"), defs); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "manifest.json"), manifest)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
