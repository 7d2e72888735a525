// Package registry defines the ordered step catalog for guided
// world-building sessions.
//
// The registry is static data: step names, display copy, and a completion
// predicate per step. Completion evaluation and step selection live in the
// track package.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSteps indicates an empty step list.
	ErrNoSteps = errors.New("at least one step is required")
	// ErrDuplicateStep indicates a repeated step name.
	ErrDuplicateStep = errors.New("step names must be unique")
	// ErrEmptyStepName indicates a blank step name.
	ErrEmptyStepName = errors.New("step name is required")
)

// CompleteFunc reports whether draft data satisfies one step.
//
// Implementations must be pure: same draft in, same verdict out, no side
// effects.
type CompleteFunc func(draft map[string]json.RawMessage) bool

// StepDefinition describes one named stage of the guided workflow.
type StepDefinition struct {
	// Name is the unique key with stable ordering.
	Name string
	// DisplayName is the human-facing step title.
	DisplayName string
	// Description summarizes what the step captures.
	Description string
	// Required gates finalization: every required step must be complete.
	Required bool
	// Complete decides completion from draft data. Nil falls back to
	// HasContent for the step's own key.
	Complete CompleteFunc
}

// Registry is an ordered, immutable set of step definitions.
type Registry struct {
	steps  []StepDefinition
	byName map[string]int
}

// New validates the step list and builds a registry.
func New(steps []StepDefinition) (*Registry, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	ordered := make([]StepDefinition, len(steps))
	byName := make(map[string]int, len(steps))
	for i, step := range steps {
		step.Name = strings.TrimSpace(step.Name)
		if step.Name == "" {
			return nil, ErrEmptyStepName
		}
		if _, exists := byName[step.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}
		if step.Complete == nil {
			step.Complete = HasContent(step.Name)
		}
		ordered[i] = step
		byName[step.Name] = i
	}
	return &Registry{steps: ordered, byName: byName}, nil
}

// Steps returns the step definitions in registry order.
func (r *Registry) Steps() []StepDefinition {
	out := make([]StepDefinition, len(r.steps))
	copy(out, r.steps)
	return out
}

// Lookup returns the definition for a step name.
func (r *Registry) Lookup(name string) (StepDefinition, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return StepDefinition{}, false
	}
	return r.steps[idx], true
}

// Contains reports whether name is a registered step.
func (r *Registry) Contains(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the step names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.steps))
	for i, step := range r.steps {
		names[i] = step.Name
	}
	return names
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// HasContent builds the default completion predicate: the draft holds a
// non-empty structured payload under the step's key.
func HasContent(step string) CompleteFunc {
	return func(draft map[string]json.RawMessage) bool {
		return payloadPresent(draft[step])
	}
}

func payloadPresent(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	switch {
	case len(trimmed) == 0:
		return false
	case bytes.Equal(trimmed, []byte("null")):
		return false
	case bytes.Equal(trimmed, []byte("{}")):
		return false
	case bytes.Equal(trimmed, []byte("[]")):
		return false
	case bytes.Equal(trimmed, []byte(`""`)):
		return false
	}
	return true
}
