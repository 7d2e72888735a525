// Package telemetry records session lifecycle events for operational
// review.
package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/emberfall/worldforge/internal/platform/id"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage"
)

// Event kinds recorded across the session lifecycle.
const (
	KindSessionCreated   = "session_created"
	KindMessageSent      = "message_sent"
	KindStreamFailed     = "stream_failed"
	KindModeSwitched     = "mode_switched"
	KindStepUpdated      = "step_updated"
	KindSessionFinalized = "session_finalized"
)

// Emitter records telemetry events. A nil emitter or nil store is a
// no-op so callers never guard their emit sites.
type Emitter struct {
	store       storage.TelemetryStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewEmitter creates a telemetry emitter backed by the given store.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now, idGenerator: id.NewID}
}

// Emit records one event. Failures are logged, not returned: telemetry
// must never fail a user-facing operation.
func (e *Emitter) Emit(ctx context.Context, sessionID, kind string, payload any) {
	if e == nil || e.store == nil {
		return
	}

	encoded := json.RawMessage(`{}`)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("worldgen: telemetry payload encode failed kind=%q err=%v", kind, err)
		} else {
			encoded = data
		}
	}

	eventID, err := e.idGenerator()
	if err != nil {
		log.Printf("worldgen: telemetry id generation failed kind=%q err=%v", kind, err)
		return
	}

	event := storage.TelemetryEvent{
		ID:        eventID,
		SessionID: sessionID,
		Kind:      kind,
		Payload:   encoded,
		CreatedAt: e.clock().UTC(),
	}
	if err := e.store.AppendEvent(ctx, event); err != nil {
		log.Printf("worldgen: telemetry append failed kind=%q session=%q err=%v", kind, sessionID, err)
	}
}
