package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/emberstore"
	"github.com/hupe1980/emberstore/ranking"
)

var evalFlags struct {
	name    string
	verify  bool
	maxRows int
}

var evalCmd = &cobra.Command{
	Use:   "eval [store-dir]",
	Short: "Evaluate retrieval quality of an embedded sample store",
	Long: `Treat the feature rows of a store as embeddings and the scalar label as
the ground-truth family. Every sample queries all the others by cosine
similarity; reported are mean reciprocal rank and mean average precision,
plus the best and worst performing queries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := emberstore.Open(args[0], evalFlags.name).Logger(logger())
		if evalFlags.verify {
			b = b.VerifyChecksums()
		}

		r, err := b.Reader()
		if err != nil {
			return err
		}
		defer r.Close()

		if r.Layout().LabelWidth != 1 {
			return fmt.Errorf("eval needs a scalar-label store, got label width %d", r.Layout().LabelWidth)
		}

		n := r.Len()
		if evalFlags.maxRows > 0 && n > evalFlags.maxRows {
			n = evalFlags.maxRows
		}
		if n < 2 {
			return fmt.Errorf("store has %d rows, need at least 2", n)
		}

		set := make([]ranking.Candidate, n)
		ids := make([]string, n)
		for i := 0; i < n; i++ {
			row, err := r.Row(i)
			if err != nil {
				return err
			}
			set[i] = ranking.Candidate{
				Label:     float64(row.Labels[0]),
				Embedding: row.Features,
			}
			ids[i] = row.ID
		}

		queries := ranking.SelfRelevance(set, nil)

		fmt.Printf("queries: %d\n", len(queries))
		fmt.Printf("mean reciprocal rank:   %.4f\n", ranking.MeanReciprocalRank(queries))
		fmt.Printf("mean average precision: %.4f\n", ranking.MeanAveragePrecision(queries))

		if best := ranking.MaxReciprocalRankIndex(queries); best >= 0 {
			fmt.Printf("best query:  %s (RR %.4f)\n", ids[best], ranking.ReciprocalRank(queries[best]))
		}
		if worst := ranking.MinReciprocalRankIndex(queries); worst >= 0 {
			fmt.Printf("worst query: %s (RR %.4f)\n", ids[worst], ranking.ReciprocalRank(queries[worst]))
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalFlags.name, "name", "train", "store name")
	evalCmd.Flags().BoolVar(&evalFlags.verify, "verify", false, "verify manifest checksums before reading")
	evalCmd.Flags().IntVar(&evalFlags.maxRows, "max-rows", 0, "evaluate only the first N rows (0 = all)")

	rootCmd.AddCommand(evalCmd)
}
