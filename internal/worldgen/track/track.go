// Package track computes derived completion state for a world-building
// session from its draft data.
//
// Evaluation is pure and deterministic: it never mutates inputs, so
// re-running it on unchanged draft data yields an identical Progress. The
// session store is the only caller that writes the result back onto the
// aggregate.
package track

import (
	"encoding/json"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/registry"
)

// Progress is the derived view of a draft against the step catalog.
type Progress struct {
	// Status holds exactly one entry per registered step.
	Status map[string]domain.StepStatus
	// CurrentStep is the step the UI should focus.
	CurrentStep string
	// CanFinalize reports whether every required step is complete.
	CanFinalize bool
}

// Evaluate computes completion state and the active step for a draft.
//
// Current step selection, in registry order:
//  1. the first required step that is not complete,
//  2. then the first optional step that is not complete,
//  3. then the last step when everything is complete.
func Evaluate(reg *registry.Registry, draft map[string]json.RawMessage) Progress {
	steps := reg.Steps()

	progress := Progress{
		Status:      make(map[string]domain.StepStatus, len(steps)),
		CanFinalize: true,
	}

	for _, step := range steps {
		complete := step.Complete(draft)
		progress.Status[step.Name] = domain.StepStatus{Complete: complete}
		if step.Required && !complete {
			progress.CanFinalize = false
		}
	}

	for _, step := range steps {
		if step.Required && !progress.Status[step.Name].Complete {
			progress.CurrentStep = step.Name
			return progress
		}
	}
	for _, step := range steps {
		if !step.Required && !progress.Status[step.Name].Complete {
			progress.CurrentStep = step.Name
			return progress
		}
	}

	progress.CurrentStep = steps[len(steps)-1].Name
	return progress
}
