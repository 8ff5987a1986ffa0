package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore/manifest"
)

var infoCmd = &cobra.Command{
	Use:   "info [store-dir]",
	Short: "Show the committed manifest of a store directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.NewStore(nil, args[0], nil).Load()
		if err != nil {
			return err
		}

		fmt.Printf("store:         %s\n", m.Store)
		fmt.Printf("rows:          %d\n", m.RowCount)
		fmt.Printf("feature width: %d\n", m.FeatureWidth)
		fmt.Printf("label width:   %d\n", m.LabelWidth)
		fmt.Printf("id width:      %d\n", m.IDWidth)
		fmt.Printf("created:       %s\n", m.CreatedAt.Format(time.RFC3339))
		if len(m.FailedRows) > 0 {
			fmt.Printf("sentinel rows: %d\n", len(m.FailedRows))
		}
		for file, sum := range m.Checksums {
			fmt.Printf("crc32 %-14s %08x\n", file+":", sum)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
