package pass

import "sync"

// Result reports what one scheduler run accomplished. All counts are
// per-document except AtomsCreated.
type Result struct {
	// Processed is the number of documents that completed every outstanding pass.
	Processed int

	// Skipped is the number of documents skipped due to a missing
	// prerequisite, counted separately from errors.
	Skipped int

	// Errored is the number of documents whose pass chain failed. Their
	// persisted pass level is unchanged, so the next run retries them.
	Errored int

	// Reset is the number of documents whose pass level was cleared at the
	// start of the run, either because their content changed or because a
	// forced reset was requested.
	Reset int

	// AtomsCreated is the total number of atoms persisted across all
	// atom-extraction passes in this run.
	AtomsCreated int

	// Refined is the number of already-complete documents whose relationships
	// were re-run during refinement.
	Refined int

	// Reconciled is the number of documents updated with symmetric
	// back-references during reconciliation.
	Reconciled int
}

// runState accumulates counters across concurrent per-document tasks.
type runState struct {
	mu     sync.Mutex
	result Result
}

func (r *runState) addProcessed() {
	r.mu.Lock()
	r.result.Processed++
	r.mu.Unlock()
}

func (r *runState) addSkipped() {
	r.mu.Lock()
	r.result.Skipped++
	r.mu.Unlock()
}

func (r *runState) addErrored() {
	r.mu.Lock()
	r.result.Errored++
	r.mu.Unlock()
}

func (r *runState) addAtoms(n int) {
	r.mu.Lock()
	r.result.AtomsCreated += n
	r.mu.Unlock()
}

func (r *runState) addRefined() {
	r.mu.Lock()
	r.result.Refined++
	r.mu.Unlock()
}

func (r *runState) snapshot() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}
