package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore"
	"github.com/hupe1980/emberstore/codec"
	"github.com/hupe1980/emberstore/extract"
)

var buildFlags struct {
	name       string
	workers    int
	labelWidth int
	idWidth    int
	hashDim    int
	sentinel   bool
}

var buildCmd = &cobra.Command{
	Use:   "build [raw-dir] [store-dir]",
	Short: "Build a feature store from raw record files",
	Long: `Build the three co-indexed array files (features, labels, ids) from the
raw record files in raw-dir. Features are produced by the built-in
feature-hashing extractor; library consumers plug in their own.

The build is fail-fast: one bad record aborts it and no manifest is
committed. Pass --sentinel to zero-fill bad rows instead and record their
indices in the manifest.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawDir, storeDir := args[0], args[1]

		extractor, err := extract.NewHashing(buildFlags.hashDim, codec.Default)
		if err != nil {
			return err
		}

		b := emberstore.Build(storeDir, buildFlags.name, extractor).
			Workers(buildFlags.workers).
			LabelWidth(buildFlags.labelWidth).
			IDWidth(buildFlags.idWidth).
			Logger(logger())
		if buildFlags.sentinel {
			b = b.Sentinel()
		}

		res, err := b.RunDir(cmd.Context(), rawDir)
		if err != nil {
			return err
		}

		fmt.Printf("built store %q: %d rows", buildFlags.name, res.Rows)
		if len(res.FailedRows) > 0 {
			fmt.Printf(", %d sentinel rows", len(res.FailedRows))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFlags.name, "name", "train", "store name (X_<name>.dat etc.)")
	buildCmd.Flags().IntVar(&buildFlags.workers, "workers", 0, "extraction workers (default GOMAXPROCS)")
	buildCmd.Flags().IntVar(&buildFlags.labelWidth, "label-width", 1, "float32 label slots per row")
	buildCmd.Flags().IntVar(&buildFlags.idWidth, "id-width", 64, "id slot width in characters")
	buildCmd.Flags().IntVar(&buildFlags.hashDim, "hash-dim", 1024, "feature-hashing dimension")
	buildCmd.Flags().BoolVar(&buildFlags.sentinel, "sentinel", false, "zero-fill bad rows instead of aborting")

	rootCmd.AddCommand(buildCmd)
}
