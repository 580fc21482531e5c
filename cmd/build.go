package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Roand-7/Lokaah-sub001/internal/factory"
	"github.com/Roand-7/Lokaah-sub001/internal/llm"
	"github.com/Roand-7/Lokaah-sub001/internal/store"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the pattern corpus offline",
	Long: `Build a pattern corpus into the corpus directory.

When an LLM provider is configured, each chapter gets AI-proposed
patterns first; deterministic blueprints fill any shortfall, so the
requested count per chapter always holds. With --offline (or no
provider configured) the corpus is built entirely from blueprints.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSlice("chapters", nil, "Chapters to build (default: full class-10 syllabus)")
	buildCmd.Flags().Int("per-chapter", 10, "Patterns per chapter")
	buildCmd.Flags().Bool("offline", false, "Skip the LLM and build from blueprints only")
}

func runBuild(cmd *cobra.Command, args []string) error {
	chapters, _ := cmd.Flags().GetStringSlice("chapters")
	perChapter, _ := cmd.Flags().GetInt("per-chapter")
	offline, _ := cmd.Flags().GetBool("offline")

	ctx := context.Background()

	var provider llm.Provider
	if !offline {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return err
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		provider, err = llm.NewProviderFromEnv(ctx, db.EventLog())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: no LLM provider (%v), building from blueprints only\n", err)
			provider = nil
		}
	}

	cfg := factory.DefaultConfig()
	if len(chapters) > 0 {
		cfg.Chapters = chapters
	}
	if perChapter > 0 {
		cfg.PerChapter = perChapter
	}

	f := factory.New(provider, cfg)
	defs, manifest, err := f.BuildCorpus(ctx)
	if err != nil {
		return fmt.Errorf("build corpus: %w", err)
	}

	dir := corpusDir(cmd)
	if err := factory.WriteCorpus(dir, defs, manifest); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	fmt.Printf("Wrote %d patterns to %s (%s mode: %d generated, %d blueprint)\n",
		manifest.TotalPatterns, dir, manifest.GenerationMode,
		manifest.AIGenerated, manifest.FallbackGenerated)
	fmt.Printf("Chapters: %s\n", strings.Join(manifest.Chapters, ", "))
	return nil
}
