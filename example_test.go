package emberstore_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/emberstore"
	"github.com/hupe1980/emberstore/record"
)

type exampleExtractor struct{}

func (exampleExtractor) Dim() int { return 2 }

func (exampleExtractor) Extract(raw *record.Raw) ([]float32, error) {
	lab := float32(*raw.Label)
	return []float32{lab, lab * lab}, nil
}

// Example_build demonstrates building a feature store from raw records and
// reading it back.
func Example_build() {
	dir, err := os.MkdirTemp("", "emberstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// Raw records: one JSON object per line.
	raw := filepath.Join(dir, "raw.jsonl")
	lines := ""
	for i := 0; i < 3; i++ {
		lines += fmt.Sprintf(`{"sha256":"%064x","label":%d}`, i, i) + "\n"
	}
	if err := os.WriteFile(raw, []byte(lines), 0o644); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	res, err := emberstore.Build(dir, "train", exampleExtractor{}).
		Workers(2).
		Run(ctx, raw)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("rows:", res.Rows)

	r, err := emberstore.Open(dir, "train").
		VerifyChecksums().
		Reader()
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	row, err := r.Row(2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("features:", row.Features)
	fmt.Println("labels:", row.Labels)
	// Output:
	// rows: 3
	// features: [2 4]
	// labels: [2]
}

// Example_openIncomplete demonstrates that a directory without a committed
// manifest is rejected.
func Example_openIncomplete() {
	dir, err := os.MkdirTemp("", "emberstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	_, err = emberstore.Open(dir, "train").Reader()
	fmt.Println(err != nil)
	// Output: true
}
