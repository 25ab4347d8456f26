// Package pass drives the multi-pass enrichment pipeline over a document
// corpus.
//
// The Scheduler type classifies documents by their current pass level,
// processes each pending document depth-first through the remaining passes
// (summary, then atoms, then relationships), and enforces a per-run budget of
// document count and wall-clock time. Per-document work is dispatched to a
// worker pool bounding concurrent calls to the AI services; within one
// document the passes always run sequentially.
//
// Relationship edges discovered by the relationships pass are made symmetric
// by a separate best-effort reconciliation phase after the main batch
// completes. Persisted pass levels make an interrupted run resumable: the
// next invocation picks up exactly the documents that still have passes
// outstanding.
package pass
