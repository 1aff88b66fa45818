// Package browser implements the file-browser core: an in-memory mirror of
// a prefix-delimited object key space projected into a tree, plus the
// mutation engine, upload pipeline, and metadata-search overlay that keep
// that mirror consistent with the remote store.
//
// The Cache is the single shared mutable structure. Everything mutates it
// through its merge/remove contract, so concurrent listing responses act as
// commutative upserts keyed by exact key string. A single page-level lock
// on the Browser serializes operation initiation; sub-operations inside a
// started batch still run concurrently.
package browser
