package registry

import "encoding/json"

// Default returns the production step catalog for universe building.
//
// The trailing review step carries no data of its own; it reports complete
// once every other step does, so the current-step selection lands on it at
// the all-complete extreme.
func Default() *Registry {
	contentSteps := []string{"basics", "geography", "lore", "factions", "figures"}
	reviewComplete := func(draft map[string]json.RawMessage) bool {
		for _, step := range contentSteps {
			if !payloadPresent(draft[step]) {
				return false
			}
		}
		return true
	}

	reg, err := New([]StepDefinition{
		{
			Name:        "basics",
			DisplayName: "World Basics",
			Description: "Name, tone, and the core premise of the universe.",
			Required:    true,
		},
		{
			Name:        "geography",
			DisplayName: "Geography",
			Description: "Regions, capitals, and the shape of the world.",
			Required:    true,
		},
		{
			Name:        "lore",
			DisplayName: "History & Lore",
			Description: "Founding myths, past ages, and defining events.",
			Required:    true,
		},
		{
			Name:        "factions",
			DisplayName: "Factions",
			Description: "Powers, guilds, and rivalries in play.",
		},
		{
			Name:        "figures",
			DisplayName: "Notable Figures",
			Description: "Names the narrator can weave into scenes.",
		},
		{
			Name:        "review",
			DisplayName: "Review & Finalize",
			Description: "Read the assembled universe before finalizing.",
			Complete:    reviewComplete,
		},
	})
	if err != nil {
		// The catalog above is static; a construction failure is a
		// programming error.
		panic(err)
	}
	return reg
}
