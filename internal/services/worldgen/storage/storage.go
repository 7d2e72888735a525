// Package storage defines persistence contracts for world-building state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// World stores one finalized, playable world sealed from a session.
type World struct {
	ID        string
	SessionID string
	OwnerID   string
	Name      string
	Content   map[string]json.RawMessage
	CreatedAt time.Time
}

// TelemetryEvent stores one session lifecycle event for operational review.
type TelemetryEvent struct {
	ID        string
	SessionID string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// SessionStore persists world-building session aggregates. Step statuses
// are derived state and are not persisted; callers recompute them on load.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	SaveSession(ctx context.Context, session domain.Session) error
	ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// WorldStore persists finalized worlds. A session seals into at most one
// world; CreateWorld reports ErrAlreadyExists on a second attempt.
type WorldStore interface {
	CreateWorld(ctx context.Context, world World) error
	GetWorld(ctx context.Context, id string) (World, error)
	ListWorldsByOwner(ctx context.Context, ownerID string, limit int) ([]World, error)
}

// TelemetryStore records session lifecycle events.
type TelemetryStore interface {
	AppendEvent(ctx context.Context, event TelemetryEvent) error
	ListEvents(ctx context.Context, sessionID string, limit int) ([]TelemetryEvent, error)
}
