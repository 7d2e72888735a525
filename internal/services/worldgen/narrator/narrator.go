// Package narrator connects world-building sessions to the AI narrator
// service.
//
// The narrator speaks Server-Sent Events: one POST per exchange, with
// chunk events carrying incremental prose and a single terminal event
// closing the exchange. The client converts that wire protocol into
// stream handles the session store consumes.
package narrator

import (
	"context"
	"encoding/json"

	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/stream"
)

// Request carries one narrator exchange: the session context plus the
// user's message. Step is set only for scoped assist exchanges.
type Request struct {
	SessionID    string                     `json:"sessionId"`
	Mode         domain.Mode                `json:"mode"`
	Step         string                     `json:"step,omitempty"`
	CurrentStep  string                     `json:"currentStep"`
	Conversation []domain.ChatMessage       `json:"conversation"`
	Draft        map[string]json.RawMessage `json:"draft"`
	Text         string                     `json:"text"`
}

// Client streams narrator responses. Implementations return the handle
// as soon as the exchange is open; events arrive asynchronously and end
// with exactly one terminal event unless the stream is canceled first.
type Client interface {
	Stream(ctx context.Context, req Request) (*stream.Stream, error)
}
