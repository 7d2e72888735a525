package domain

import "encoding/json"

// StreamEventType identifies the kind of a narrator stream event.
type StreamEventType string

const (
	// StreamEventChunk carries an incremental fragment of assistant text.
	StreamEventChunk StreamEventType = "chunk"
	// StreamEventComplete carries the final assistant text and any
	// structured step updates the exchange produced.
	StreamEventComplete StreamEventType = "complete"
	// StreamEventError reports a transport or provider failure.
	StreamEventError StreamEventType = "error"
	// StreamEventAborted reports a caller-initiated cancellation.
	StreamEventAborted StreamEventType = "aborted"
)

// StreamEvent is one tagged event in a narrator response stream.
//
// Exactly the fields for the tagged variant are populated: Delta for chunk,
// Content and StepUpdates for complete, Reason for error.
type StreamEvent struct {
	Type        StreamEventType
	Delta       string
	Content     string
	StepUpdates map[string]json.RawMessage
	Reason      string
}

// Terminal reports whether no further events follow this one.
func (e StreamEvent) Terminal() bool {
	switch e.Type {
	case StreamEventComplete, StreamEventError, StreamEventAborted:
		return true
	default:
		return false
	}
}
