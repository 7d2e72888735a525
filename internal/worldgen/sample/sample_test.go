package sample

import (
	"reflect"
	"testing"
	"time"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/registry"
	"github.com/emberfall/worldforge/internal/worldgen/track"
)

func TestDraftCoversEveryDefaultStep(t *testing.T) {
	builder, err := NewBuilder(42)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	draft := builder.Draft("The Emerald Vale")
	progress := track.Evaluate(registry.Default(), draft)
	if !progress.CanFinalize {
		t.Fatalf("sample draft is not finalizable: %+v", progress.Status)
	}
}

func TestSameSeedIsDeterministic(t *testing.T) {
	first, err := NewBuilder(7)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	second, err := NewBuilder(7)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	if a, b := first.WorldName(), second.WorldName(); a != b {
		t.Fatalf("world names differ: %q vs %q", a, b)
	}
	if !reflect.DeepEqual(first.Draft("X"), second.Draft("X")) {
		t.Fatal("drafts differ for the same seed")
	}
}

func TestSessionAssembly(t *testing.T) {
	builder, err := NewBuilder(42)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	now := func() time.Time { return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC) }
	idGen := func() (string, error) { return "sess-demo", nil }

	session, err := builder.Session("owner-1", domain.ModeAssisted, now, idGen)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if session.ID != "sess-demo" || session.OwnerID != "owner-1" {
		t.Errorf("session = %+v", session)
	}
	if len(session.Conversation) != 2 {
		t.Errorf("conversation length = %d, want 2", len(session.Conversation))
	}
	if len(session.Draft) != registry.Default().Len() {
		t.Errorf("draft has %d steps, want %d", len(session.Draft), registry.Default().Len())
	}

	manual, err := builder.Session("owner-1", domain.ModeManual, now, idGen)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(manual.Conversation) != 0 {
		t.Error("manual session should have no conversation")
	}
}
