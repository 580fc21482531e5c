package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Roand-7/Lokaah-sub001/internal/augment"
	"github.com/Roand-7/Lokaah-sub001/internal/engine"
	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/Roand-7/Lokaah-sub001/internal/store"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate question instances for a topic",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().String("topic", "", "Topic to generate questions for (required)")
	generateCmd.Flags().String("hint", "", "Bias pattern selection toward ids containing this text")
	generateCmd.Flags().Int("count", 1, "Number of instances to generate")
	generateCmd.Flags().Uint64("seed", 0, "RNG seed (0 uses a random seed)")
	generateCmd.Flags().Bool("augment", false, "Wrap each question in an AI-written scenario")
	generateCmd.Flags().Bool("json", false, "Emit instances as a JSON array")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	hint, _ := cmd.Flags().GetString("hint")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	doAugment, _ := cmd.Flags().GetBool("augment")
	asJSON, _ := cmd.Flags().GetBool("json")

	patterns := pattern.NewStore()
	if err := patterns.LoadDir(corpusDir(cmd)); err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	opts := engine.Options{Events: db.EventLog()}
	if doAugment {
		provider, err := llm.NewProviderFromEnv(ctx, db.EventLog())
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		opts.Augmenter = augment.New(provider, augment.DefaultConfig())
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	eng := engine.New(patterns, opts)
	sess := engine.NewSession(seed)

	instances := make([]*engine.Instance, 0, count)
	for i := 0; i < count; i++ {
		inst, err := eng.Generate(ctx, sess, topic, hint)
		if err != nil {
			return fmt.Errorf("instance %d: %w", i+1, err)
		}
		instances = append(instances, inst)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(instances)
	}

	for i, inst := range instances {
		fmt.Printf("── %d/%d  [%s, %d marks, %s] ──\n", i+1, count, inst.PatternID, inst.Marks, inst.Difficulty)
		fmt.Println(questionText(inst))
		fmt.Printf("Answer: %s\n\n", inst.AnswerText)
	}
	return nil
}

// questionText prefers the narrative wrapping when present.
func questionText(inst *engine.Instance) string {
	if inst.Scenario != nil && inst.Scenario.QuestionText != "" {
		return inst.Scenario.QuestionText
	}
	return inst.QuestionText
}
