package cmd

import (
	"github.com/Roand-7/Lokaah-sub001/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prashna",
	Short: "Procedural question pattern engine",
	Long:  "Prashna — generates class-10 math exam questions from a declarative pattern corpus, with deterministic answers and optional AI narrative.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PRASHNA_DB env var)")
	rootCmd.PersistentFlags().String("corpus", "corpus", "Path to the pattern corpus directory")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then PRASHNA_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultPath()
}

func corpusDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("corpus")
	return dir
}
