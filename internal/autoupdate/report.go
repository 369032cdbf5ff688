package autoupdate

import (
	"slices"
	"sync"

	"github.com/sqve/avalanche/internal/models"
)

// Result is what happened to one enrolled branch during a pass.
type Result struct {
	Pair models.TrackedBranch `json:"pair"`
	// Evaluated is false when the repository could not be read or was busy.
	Evaluated bool                  `json:"evaluated"`
	Decision  models.SafetyDecision `json:"decision"`
	Changes   string                `json:"changes,omitempty"`
	Outcome   *models.SyncOutcome   `json:"outcome,omitempty"`
	Busy      bool                  `json:"busy,omitempty"`
	Err       error                 `json:"-"`
}

// Failed reports results that need attention from the user.
func (r Result) Failed() bool {
	if r.Err != nil {
		return true
	}
	if r.Evaluated && r.Decision.Reason == models.SkipLocalBranchMissing {
		return true
	}
	return r.Outcome != nil && !r.Outcome.Succeeded()
}

type Report struct {
	mu      sync.Mutex
	results []Result
	// Err is set when the pass could not run at all.
	Err error
}

func (r *Report) add(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Results returns the per-branch results sorted by pair.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := slices.Clone(r.results)
	slices.SortFunc(results, func(a, b Result) int { return a.Pair.Compare(b.Pair) })
	return results
}

func (r *Report) Failed() int {
	n := 0
	if r.Err != nil {
		n++
	}
	for _, result := range r.Results() {
		if result.Failed() {
			n++
		}
	}
	return n
}
