package cmd

import (
	"context"
	"fmt"

	"github.com/Roand-7/Lokaah-sub001/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show generation and LLM usage statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	st, err := db.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Generations:   %d\n", st.Generations)
	fmt.Printf("  duplicates:  %d\n", st.Duplicates)
	fmt.Printf("  augmented:   %d\n", st.Augmented)
	fmt.Printf("  mismatches:  %d\n", st.Mismatches)
	fmt.Printf("LLM requests:  %d\n", st.LLMRequests)
	fmt.Printf("  failures:    %d\n", st.LLMFailures)
	fmt.Printf("  tokens in:   %d\n", st.InputTokens)
	fmt.Printf("  tokens out:  %d\n", st.OutputTokens)
	return nil
}
