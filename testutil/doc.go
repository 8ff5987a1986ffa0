// Package testutil provides deterministic data generators for tests and
// benchmarks.
//
// Everything is driven by an explicitly seeded RNG, so failures reproduce
// across runs and machines. The generators cover the shapes this module
// works with: raw sample records, synthetic embeddings and labeled embedding
// clusters for retrieval evaluation.
package testutil
