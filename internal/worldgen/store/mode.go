package store

import "github.com/emberfall/worldforge/internal/worldgen/domain"

// ModeGate is the two-state machine deciding which operations the current
// collaboration mode permits. Mode alone determines the answer; the gate
// carries no hidden state.
type ModeGate struct {
	mode domain.Mode
}

// NewModeGate builds a gate starting in the given mode.
func NewModeGate(mode domain.Mode) ModeGate {
	if !mode.IsValid() {
		mode = domain.ModeAssisted
	}
	return ModeGate{mode: mode}
}

// Mode returns the current collaboration mode.
func (g ModeGate) Mode() domain.Mode {
	return g.mode
}

// Set transitions the gate. Invalid modes are ignored.
func (g *ModeGate) Set(mode domain.Mode) {
	if mode.IsValid() {
		g.mode = mode
	}
}

// AllowsStreaming reports whether the chat send path is enabled.
func (g ModeGate) AllowsStreaming() bool {
	return g.mode == domain.ModeAssisted
}

// AllowsManualEdit reports whether direct draft editing is enabled.
func (g ModeGate) AllowsManualEdit() bool {
	return g.mode == domain.ModeManual
}
