// Package sample generates plausible demo world-building content for
// development databases.
package sample

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/emberfall/worldforge/internal/random"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
)

// Builder produces randomized but coherent session content. All output
// for one seed is deterministic, so seeded databases are reproducible.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder creates a builder. A zero seed draws one from crypto/rand.
func NewBuilder(seed int64) (*Builder, error) {
	if seed == 0 {
		var err error
		seed, err = random.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("generate sample seed: %w", err)
		}
	}
	return &Builder{rng: rand.New(rand.NewSource(seed))}, nil
}

func (b *Builder) pick(values []string) string {
	return values[b.rng.Intn(len(values))]
}

// WorldName returns an adjective + noun world name.
func (b *Builder) WorldName() string {
	return fmt.Sprintf("The %s %s", b.pick(worldAdjectives), b.pick(worldNouns))
}

// Draft returns a complete draft covering every default step.
func (b *Builder) Draft(worldName string) map[string]json.RawMessage {
	basics := map[string]string{
		"name":  worldName,
		"tone":  b.pick([]string{"grim", "hopeful", "mythic", "intimate"}),
		"pitch": b.pick(foundingMyths),
	}
	geography := map[string]string{
		"terrain": b.pick(terrains),
		"climate": b.pick(climates),
	}
	lore := map[string]string{
		"founding":      b.pick(foundingMyths),
		"definingEvent": b.pick(ancientEvents),
	}
	factions := []map[string]string{
		{"name": b.pick(factionNames), "agenda": b.pick(factionAgendas)},
		{"name": b.pick(factionNames), "agenda": b.pick(factionAgendas)},
	}
	figures := []map[string]string{
		{
			"name": fmt.Sprintf("%s %s", b.pick(figureFirstNames), b.pick(figureSurnames)),
			"role": b.pick(figureRoles),
		},
	}
	review := map[string]bool{"reviewed": true}

	draft := map[string]json.RawMessage{}
	for step, content := range map[string]any{
		"basics":    basics,
		"geography": geography,
		"lore":      lore,
		"factions":  factions,
		"figures":   figures,
		"review":    review,
	} {
		encoded, err := json.Marshal(content)
		if err != nil {
			// All inputs are plain maps and slices; this cannot fail.
			panic(err)
		}
		draft[step] = encoded
	}
	return draft
}

// Conversation returns a short assisted-mode exchange history.
func (b *Builder) Conversation(worldName string, start time.Time) []domain.ChatMessage {
	start = start.UTC()
	return []domain.ChatMessage{
		{Role: domain.RoleUser, Content: b.pick(userPrompts), Timestamp: start},
		{
			Role:      domain.RoleAssistant,
			Content:   fmt.Sprintf("%s I am calling it %s for now.", b.pick(narratorReplies), worldName),
			Timestamp: start.Add(3 * time.Second),
		},
	}
}

// Session assembles one demo session with a full draft and history.
func (b *Builder) Session(ownerID string, mode domain.Mode, now func() time.Time, idGenerator func() (string, error)) (domain.Session, error) {
	session, err := domain.CreateSession(domain.CreateSessionInput{OwnerID: ownerID, Mode: mode}, now, idGenerator)
	if err != nil {
		return domain.Session{}, err
	}
	worldName := b.WorldName()
	session.Draft = b.Draft(worldName)
	if mode == domain.ModeAssisted {
		session.Conversation = b.Conversation(worldName, session.CreatedAt)
	}
	return session, nil
}
