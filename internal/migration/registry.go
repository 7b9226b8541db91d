// Package migration holds the ordered, version-gated steps that bring a saved
// document up to the current format.
package migration

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/legacy"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

// StepContext is the state a step works on. Steps mutate Doc and Website in
// place; the legacy decode step replaces Website.
type StepContext struct {
	Doc     *dom.Document
	Website *model.Website
	Decoder *legacy.Decoder
	Logger  *slog.Logger
}

// StepFunc applies one transformation and returns human-readable actions.
// An empty result means nothing needed to change.
type StepFunc func(sc *StepContext) ([]string, error)

// Step is a migration bound to the version that introduced the new format.
type Step struct {
	Target versioning.Tuple
	Name   string
	Apply  StepFunc
}

// StepResult records an executed step.
type StepResult struct {
	Target  versioning.Tuple `json:"target"`
	Name    string           `json:"name"`
	Actions []string         `json:"actions,omitempty"`

	Duration time.Duration `json:"-"`
}

// Registry is an ordered list of steps. It is not modified after construction.
type Registry struct {
	steps []Step
}

// NewRegistry orders steps by target version. Two steps may not share a target.
func NewRegistry(steps ...Step) (*Registry, error) {
	sorted := slices.Clone(steps)
	slices.SortStableFunc(sorted, func(a, b Step) int {
		return int(versioning.Compare(a.Target, b.Target))
	})
	for i, s := range sorted {
		if s.Apply == nil {
			return nil, fmt.Errorf("migration step %q (%s) has no apply function", s.Name, s.Target)
		}
		if i > 0 && versioning.Compare(sorted[i-1].Target, s.Target) == versioning.Equal {
			return nil, fmt.Errorf("migration steps %q and %q share target %s", sorted[i-1].Name, s.Name, s.Target)
		}
	}
	return &Registry{steps: sorted}, nil
}

// Steps returns a copy of the ordered steps.
func (r *Registry) Steps() []Step {
	return slices.Clone(r.steps)
}

// Pending returns the steps a document saved at saved needs to reach running:
// those whose target is above saved and not above running.
func (r *Registry) Pending(saved, running versioning.Tuple) []Step {
	var out []Step
	for _, s := range r.steps {
		if versioning.Compare(saved, s.Target) == versioning.Less &&
			versioning.Compare(s.Target, running) != versioning.Greater {
			out = append(out, s)
		}
	}
	return out
}

// Run applies the pending steps in order. The first failing step aborts the
// run; the document and model are then in an undefined state and must be
// discarded by the caller.
func (r *Registry) Run(sc *StepContext, saved, running versioning.Tuple) ([]StepResult, error) {
	if sc.Logger == nil {
		sc.Logger = slog.Default()
	}
	if sc.Decoder == nil {
		sc.Decoder = legacy.NewDecoder(nil, sc.Logger)
	}
	pending := r.Pending(saved, running)
	results := make([]StepResult, 0, len(pending))
	for _, s := range pending {
		start := time.Now()
		actions, err := s.Apply(sc)
		elapsed := time.Since(start)
		if err != nil {
			sc.Logger.Error("Migration step failed",
				logfields.Step(s.Name), logfields.Target(s.Target.String()), logfields.Error(err))
			return nil, err
		}
		sc.Logger.Debug("Migration step applied",
			logfields.Step(s.Name),
			logfields.Target(s.Target.String()),
			logfields.Count(len(actions)),
			logfields.DurationMS(float64(elapsed.Microseconds())/1000))
		results = append(results, StepResult{Target: s.Target, Name: s.Name, Actions: actions, Duration: elapsed})
	}
	return results, nil
}

// DefaultSteps returns the built-in steps in target order.
func DefaultSteps() []Step {
	return []Step{
		{Target: versioning.V(2, 2, 8), Name: "relabel-nav-toggle", Apply: relabelNavToggle},
		{Target: versioning.V(2, 2, 9), Name: "type-suffix", Apply: appendTypeSuffix},
		{Target: versioning.V(2, 2, 10), Name: "decode-legacy", Apply: decodeLegacy},
		{Target: versioning.V(2, 2, 11), Name: "body-element", Apply: bodyElement},
		{Target: versioning.V(2, 2, 12), Name: "standard-links", Apply: standardLinks},
		{Target: versioning.V(2, 2, 13), Name: "strip-type-attributes", Apply: stripTypeAttributes},
		{Target: versioning.V(2, 2, 14), Name: "remove-empty-attributes", Apply: removeEmptyAttributes},
	}
}

// DefaultRegistry returns a registry of the built-in steps.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSteps()...)
	if err != nil {
		panic(err)
	}
	return r
}
