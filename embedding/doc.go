// Package embedding keeps each document's derived chunk and vector set in
// sync with its current content.
//
// The Orchestrator detects documents that were never embedded or whose
// content changed since their last embedding, splits them into overlapping
// chunks, embeds chunk texts in fixed-size sub-batches with retry and
// exponential backoff, and replaces the document's chunk records. This
// lifecycle is independent of the summary/atoms/relationships passes.
//
// Vector dimensionality is fixed when the first chunk is stored; a run whose
// configured model produces a different dimensionality fails fast and asks
// the operator to reset rather than silently mixing dimensionalities.
package embedding
