// Command emberstore drives the feature store pipeline: mirror a raw corpus,
// build the memory-mapped arrays, inspect and transfer completed stores, and
// evaluate retrieval quality of embedded sample sets.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "emberstore",
	Short:        "Out-of-core feature stores for malware-analysis ML pipelines",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func logger() *emberstore.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return emberstore.NewTextLogger(level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
