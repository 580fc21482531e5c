package cmd

import (
	"context"
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/Roand-7/Lokaah-sub001/internal/engine"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a topic (no database)",
	Long: `Generate and pretty-print questions for a specific topic.

This is a stateless developer tool — no database, no event logging, no
AI narrative. Useful for evaluating pattern quality after a corpus
build.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("topic", "", "Topic to preview (required)")
	previewCmd.Flags().String("hint", "", "Bias pattern selection toward ids containing this text")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	previewCmd.Flags().Uint64("seed", 0, "RNG seed (0 uses a random seed)")
	previewCmd.Flags().Bool("answers", true, "Show computed answers")
	_ = previewCmd.MarkFlagRequired("topic")
}

var (
	previewHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8B5CF6"))

	previewCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1).
			Width(72)

	previewMeta = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8")).
			Italic(true)

	previewAnswer = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#22C55E"))
)

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	hint, _ := cmd.Flags().GetString("hint")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	showAnswers, _ := cmd.Flags().GetBool("answers")

	patterns := pattern.NewStore()
	if err := patterns.LoadDir(corpusDir(cmd)); err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	eng := engine.New(patterns, engine.Options{})
	sess := engine.NewSession(seed)
	ctx := context.Background()

	fmt.Println(previewHeader.Render(fmt.Sprintf("Topic: %s (seed %d)", topic, seed)))
	fmt.Println()

	for i := 1; i <= count; i++ {
		inst, err := eng.Generate(ctx, sess, topic, hint)
		if err != nil {
			fmt.Printf("Question %d: generation failed: %v\n\n", i, err)
			continue
		}

		meta := fmt.Sprintf("%s · %d marks · %s", inst.PatternID, inst.Marks, inst.Difficulty)
		body := inst.QuestionText
		if showAnswers {
			body += "\n\n" + previewAnswer.Render("Answer: "+inst.AnswerText)
		}
		if inst.Duplicate {
			meta += " · repeat"
		}

		fmt.Println(previewMeta.Render(fmt.Sprintf("%d/%d  %s", i, count, meta)))
		fmt.Println(previewCard.Render(body))
		fmt.Println()
	}
	return nil
}
