package store

import (
	"testing"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
)

func TestModeGatePermissions(t *testing.T) {
	tests := []struct {
		mode       domain.Mode
		streaming  bool
		manualEdit bool
	}{
		{domain.ModeAssisted, true, false},
		{domain.ModeManual, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			gate := NewModeGate(tt.mode)
			if got := gate.AllowsStreaming(); got != tt.streaming {
				t.Errorf("AllowsStreaming() = %v, want %v", got, tt.streaming)
			}
			if got := gate.AllowsManualEdit(); got != tt.manualEdit {
				t.Errorf("AllowsManualEdit() = %v, want %v", got, tt.manualEdit)
			}
		})
	}
}

func TestModeGateIgnoresInvalidTransition(t *testing.T) {
	gate := NewModeGate(domain.ModeManual)
	gate.Set("hybrid")
	if gate.Mode() != domain.ModeManual {
		t.Errorf("Mode() = %q after invalid set", gate.Mode())
	}
}

func TestNewModeGateDefaultsToAssisted(t *testing.T) {
	if gate := NewModeGate(""); gate.Mode() != domain.ModeAssisted {
		t.Errorf("Mode() = %q, want assisted", gate.Mode())
	}
}
