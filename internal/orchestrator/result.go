package orchestrator

import (
	"github.com/stackify/cli/internal/domain"
)

// Outcome is what happened to one resource during a command.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeReused  Outcome = "reused"
	OutcomeStarted Outcome = "started"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomeStopped Outcome = "stopped"
	OutcomeRemoved Outcome = "removed"
)

// ResourceResult reports one resource.
type ResourceResult struct {
	Kind    string
	Name    string
	Outcome Outcome
	Reason  string
	Err     error
}

// Result aggregates the per-resource outcomes of a lifecycle command. Each
// resource has one entry holding its last outcome, so an anchor created and
// then started in the same run reads as started.
type Result struct {
	Environment domain.EnvironmentName
	// NothingToDo is set when the command found nothing to act on.
	NothingToDo bool
	Resources   []ResourceResult
}

func (r *Result) set(res ResourceResult) {
	for i := range r.Resources {
		if r.Resources[i].Kind == res.Kind && r.Resources[i].Name == res.Name {
			r.Resources[i] = res
			return
		}
	}
	r.Resources = append(r.Resources, res)
}

func (r *Result) add(kind, name string, outcome Outcome) {
	r.set(ResourceResult{Kind: kind, Name: name, Outcome: outcome})
}

func (r *Result) skip(kind, name, reason string) {
	r.set(ResourceResult{Kind: kind, Name: name, Outcome: OutcomeSkipped, Reason: reason})
}

func (r *Result) fail(kind, name string, err error) {
	r.set(ResourceResult{Kind: kind, Name: name, Outcome: OutcomeFailed, Err: err})
}

// Count returns how many resources ended with outcome.
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Resources {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the failed resources.
func (r *Result) Failed() []ResourceResult {
	var out []ResourceResult
	for _, res := range r.Resources {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

// Lookup returns the result for the named resource of kind.
func (r *Result) Lookup(kind, name string) (ResourceResult, bool) {
	for _, res := range r.Resources {
		if res.Kind == kind && res.Name == name {
			return res, true
		}
	}
	return ResourceResult{}, false
}
