package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/emberfall/worldforge/internal/errors"
	"github.com/emberfall/worldforge/internal/platform/id"
	"github.com/emberfall/worldforge/internal/services/worldgen/narrator"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage"
	"github.com/emberfall/worldforge/internal/telemetry"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/stream"
)

// Gateway binds the session controller to storage, the narrator, and
// telemetry. It implements store.Gateway.
type Gateway struct {
	sessions    storage.SessionStore
	worlds      storage.WorldStore
	narrator    narrator.Client
	emitter     *telemetry.Emitter
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewGateway wires the gateway's collaborators. emitter may be nil.
func NewGateway(sessions storage.SessionStore, worlds storage.WorldStore, client narrator.Client, emitter *telemetry.Emitter) *Gateway {
	return &Gateway{
		sessions:    sessions,
		worlds:      worlds,
		narrator:    client,
		emitter:     emitter,
		now:         time.Now,
		idGenerator: id.NewID,
	}
}

// CreateSession creates and persists a fresh session for one owner.
func (g *Gateway) CreateSession(ctx context.Context, ownerID string, mode domain.Mode) (domain.Session, error) {
	session, err := domain.CreateSession(domain.CreateSessionInput{OwnerID: ownerID, Mode: mode}, g.now, g.idGenerator)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidMode):
			return domain.Session{}, apperrors.Wrap(apperrors.CodeInvalidMode, "create session", err)
		default:
			return domain.Session{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "create session", err)
		}
	}
	if err := g.sessions.CreateSession(ctx, session); err != nil {
		return domain.Session{}, apperrors.Wrap(apperrors.CodeUnknown, "persist session", err)
	}
	g.emitter.Emit(ctx, session.ID, telemetry.KindSessionCreated, map[string]string{"mode": string(session.Mode)})
	return session, nil
}

// GetSession loads one session aggregate.
func (g *Gateway) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.Newf(apperrors.CodeSessionNotFound, "session %q not found", sessionID)
		}
		return domain.Session{}, apperrors.Wrap(apperrors.CodeUnknown, "load session", err)
	}
	return session, nil
}

// SaveSession persists the session aggregate.
func (g *Gateway) SaveSession(ctx context.Context, session domain.Session) error {
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.Newf(apperrors.CodeSessionNotFound, "session %q not found", session.ID)
		}
		return apperrors.Wrap(apperrors.CodeUnknown, "save session", err)
	}
	return nil
}

// StreamMessage opens a narrator exchange for the main conversation.
func (g *Gateway) StreamMessage(ctx context.Context, session domain.Session, text string) (*stream.Stream, error) {
	st, err := g.narrator.Stream(ctx, narrator.Request{
		SessionID:    session.ID,
		Mode:         session.Mode,
		CurrentStep:  session.CurrentStep,
		Conversation: session.Conversation,
		Draft:        session.Draft,
		Text:         text,
	})
	if err != nil {
		g.emitter.Emit(ctx, session.ID, telemetry.KindStreamFailed, map[string]string{"reason": err.Error()})
		return nil, err
	}
	g.emitter.Emit(ctx, session.ID, telemetry.KindMessageSent, nil)
	return st, nil
}

// StreamAssist opens a narrator exchange scoped to one step.
func (g *Gateway) StreamAssist(ctx context.Context, session domain.Session, step, text string) (*stream.Stream, error) {
	st, err := g.narrator.Stream(ctx, narrator.Request{
		SessionID:    session.ID,
		Mode:         session.Mode,
		Step:         step,
		CurrentStep:  session.CurrentStep,
		Conversation: session.Conversation,
		Draft:        session.Draft,
		Text:         text,
	})
	if err != nil {
		g.emitter.Emit(ctx, session.ID, telemetry.KindStreamFailed, map[string]string{"reason": err.Error(), "step": step})
		return nil, err
	}
	return st, nil
}

// Finalize seals a session into a world. The session row is marked
// consumed in the same call so a crash between the two writes is the
// only window where a world exists for an unconsumed session; the
// unique session constraint on worlds makes a retry safe.
func (g *Gateway) Finalize(ctx context.Context, session domain.Session) (string, error) {
	worldID, err := g.idGenerator()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "generate world id", err)
	}

	world := storage.World{
		ID:        worldID,
		SessionID: session.ID,
		OwnerID:   session.OwnerID,
		Name:      worldNameFromDraft(session.Draft),
		Content:   session.Draft,
		CreatedAt: g.now().UTC(),
	}
	if err := g.worlds.CreateWorld(ctx, world); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", apperrors.Newf(apperrors.CodeConflict, "session %q is already finalized", session.ID)
		}
		return "", apperrors.Wrap(apperrors.CodeUnknown, "create world", err)
	}

	session.Consumed = true
	session.UpdatedAt = g.now().UTC()
	if err := g.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("mark session consumed: %w", err)
	}

	g.emitter.Emit(ctx, session.ID, telemetry.KindSessionFinalized, map[string]string{"world_id": worldID})
	return worldID, nil
}

// worldNameFromDraft pulls the display name out of the basics step.
func worldNameFromDraft(draft map[string]json.RawMessage) string {
	var basics struct {
		Name string `json:"name"`
	}
	if raw, ok := draft["basics"]; ok {
		_ = json.Unmarshal(raw, &basics)
	}
	if name := strings.TrimSpace(basics.Name); name != "" {
		return name
	}
	return "Untitled World"
}
