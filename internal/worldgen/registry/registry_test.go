package registry

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewRejectsInvalidStepLists(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	if _, err := New([]StepDefinition{{Name: "  "}}); !errors.Is(err, ErrEmptyStepName) {
		t.Fatalf("expected ErrEmptyStepName, got %v", err)
	}
	_, err := New([]StepDefinition{{Name: "basics"}, {Name: "basics"}})
	if !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("expected ErrDuplicateStep, got %v", err)
	}
}

func TestStepsPreservesOrderAndIsolation(t *testing.T) {
	reg, err := New([]StepDefinition{
		{Name: "basics", Required: true},
		{Name: "lore", Required: true},
		{Name: "factions"},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	steps := reg.Steps()
	if len(steps) != 3 || steps[0].Name != "basics" || steps[1].Name != "lore" || steps[2].Name != "factions" {
		t.Fatalf("unexpected step order %+v", steps)
	}

	steps[0].Name = "mutated"
	if reg.Steps()[0].Name != "basics" {
		t.Fatal("Steps must return a copy")
	}

	if !reg.Contains("lore") || reg.Contains("unknown") {
		t.Fatal("Contains gave wrong answers")
	}
	if got := reg.Names(); got[2] != "factions" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestHasContentRejectsEmptyPayloads(t *testing.T) {
	predicate := HasContent("basics")

	empties := []string{"", "null", "{}", "[]", `""`, "   "}
	for _, raw := range empties {
		draft := map[string]json.RawMessage{"basics": json.RawMessage(raw)}
		if predicate(draft) {
			t.Fatalf("payload %q must not count as content", raw)
		}
	}
	if predicate(nil) {
		t.Fatal("missing key must not count as content")
	}

	draft := map[string]json.RawMessage{"basics": json.RawMessage(`{"name":"Varesh"}`)}
	if !predicate(draft) {
		t.Fatal("structured payload must count as content")
	}
}

func TestDefaultCatalog(t *testing.T) {
	reg := Default()
	names := reg.Names()
	want := []string{"basics", "geography", "lore", "factions", "figures", "review"}
	if len(names) != len(want) {
		t.Fatalf("unexpected catalog %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("step %d = %q, want %q", i, names[i], want[i])
		}
	}

	review, ok := reg.Lookup("review")
	if !ok {
		t.Fatal("review step missing")
	}
	if review.Required {
		t.Fatal("review must not gate finalization")
	}
	if review.Complete(map[string]json.RawMessage{}) {
		t.Fatal("review must be incomplete while content steps are empty")
	}

	full := map[string]json.RawMessage{}
	for _, step := range []string{"basics", "geography", "lore", "factions", "figures"} {
		full[step] = json.RawMessage(`{"filled":true}`)
	}
	if !review.Complete(full) {
		t.Fatal("review must complete once every content step is filled")
	}
}
