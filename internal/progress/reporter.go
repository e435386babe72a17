// Package progress provides the process-wide progress reporter that
// extractors and rasterizers write to and the API surface reads from.
package progress

import "sync"

// Statuses produced by the ingestion pipeline. Collaborators may
// introduce others; these are the only values this core emits.
const (
	StatusLoading    = "loading"
	StatusConverting = "Converting"
	StatusMerging    = "Merging"
	StatusDone       = "done"
)

// OpUnzip is the operation tag used by every ingestion stage.
const OpUnzip = "unzip"

// Status is one progress descriptor. Percentage is an integer 0-100
// formatted as its decimal string; it is empty when the total is unknown.
type Status struct {
	Status      string `json:"status"`
	Percentage  string `json:"percentage"`
	CurrentFile string `json:"current_file"`
}

// Reporter is a keyed map of progress descriptors: user token to
// operation tag to descriptor. Descriptors are created lazily on first
// write, overwritten by each subsequent write, and retained for the
// user's session.
type Reporter struct {
	mu    sync.Mutex
	state map[string]map[string]Status
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{state: make(map[string]map[string]Status)}
}

// Set replaces the descriptor for (user, tag) atomically.
func (r *Reporter) Set(user, tag, status, percentage, current string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops, ok := r.state[user]
	if !ok {
		ops = make(map[string]Status)
		r.state[user] = ops
	}
	ops[tag] = Status{Status: status, Percentage: percentage, CurrentFile: current}
}

// Get returns a copy of every descriptor recorded for user. The result
// is detached from the reporter; mutating it has no effect.
func (r *Reporter) Get(user string) map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Status, len(r.state[user]))
	for tag, st := range r.state[user] {
		out[tag] = st
	}
	return out
}
