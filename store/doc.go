// Package store builds and reads out-of-core feature stores.
//
// A store is three co-indexed, headerless binary arrays on disk (features,
// labels, identifiers; see package layout) sized for collections that do not
// fit in memory.
//
// # Building
//
// Builder runs a two-phase build. Phase 1 streams all raw input files once to
// count rows; the three array files are then allocated sequentially at their
// final size. Phase 2 streams the inputs again, assigns every record the next
// sequential row index and hands (row, record) pairs to a fixed pool of
// workers. Each worker owns private read-write mappings of the three files and
// writes its rows at their fixed byte offsets; completion order across workers
// is unconstrained because the destination offset, not completion order,
// determines placement. Row indices form a bijection onto [0, N), which the
// builder audits with a bitmap of written rows before committing.
//
// A build commits by writing a manifest sidecar; failed or cancelled builds
// leave no manifest and the directory must be treated as invalid in its
// entirety. Under the default fail-fast policy any unparseable or
// unextractable record aborts the build. The opt-in sentinel policy instead
// zero-fills failed rows and lists them in the manifest.
//
// # Reading
//
// Reader opens the arrays read-only via memory mapping and serves
// random-access rows to any number of concurrent readers. Dimensions come
// from the manifest or from the caller (for legacy stores without one); file
// sizes are validated against the layout on open, never truncated or padded.
package store
