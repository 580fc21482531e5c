package cmd

import (
	"fmt"

	"github.com/Roand-7/Lokaah-sub001/internal/pattern"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Vet the pattern corpus and report skipped records",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	st := pattern.NewStore()
	dir := corpusDir(cmd)
	if err := st.LoadDir(dir); err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	warnings := st.Warnings()
	fmt.Printf("Corpus: %s\n", dir)
	fmt.Printf("Patterns loaded: %d\n", st.Len())
	fmt.Printf("Topics: %d\n", len(st.Topics()))
	fmt.Printf("Records skipped: %d\n", len(warnings))

	for _, w := range warnings {
		fmt.Printf("  %v\n", w)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("%d record(s) failed validation", len(warnings))
	}
	return nil
}
