package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore/bundle"
)

var exportFlags struct {
	name string
}

var exportCmd = &cobra.Command{
	Use:   "export [store-dir] [archive]",
	Short: "Pack a completed store into a portable archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := bundle.Export(args[0], exportFlags.name, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("exported store %q (%d rows, %d files) to %s\n", info.Store, info.Rows, len(info.Files), args[1])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [archive] [store-dir]",
	Short: "Unpack a store archive and verify it against its manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := bundle.Import(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("imported store %q (%d rows) into %s\n", info.Store, info.Rows, args[1])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.name, "name", "train", "store name")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
