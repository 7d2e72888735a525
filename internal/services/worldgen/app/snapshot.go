package server

import (
	"encoding/json"
	"time"

	"github.com/emberfall/worldforge/internal/worldgen/markdown"
	"github.com/emberfall/worldforge/internal/worldgen/registry"
	"github.com/emberfall/worldforge/internal/worldgen/store"
)

// pageRenderer converts narrator prose to safe HTML for delta frames.
var pageRenderer = markdown.NewRenderer()

type messagePayload struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}

type stepPayload struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Required    bool   `json:"required"`
	Complete    bool   `json:"complete"`
}

type snapshotPayload struct {
	SessionID     string                     `json:"session_id"`
	Mode          string                     `json:"mode"`
	Messages      []messagePayload           `json:"messages"`
	Pending       string                     `json:"pending,omitempty"`
	Streaming     bool                       `json:"streaming"`
	StreamingHTML string                     `json:"streaming_html,omitempty"`
	AssistStep    string                     `json:"assist_step,omitempty"`
	AssistHTML    string                     `json:"assist_html,omitempty"`
	Draft         map[string]json.RawMessage `json:"draft"`
	Steps         []stepPayload              `json:"steps"`
	CurrentStep   string                     `json:"current_step"`
	CanFinalize   bool                       `json:"can_finalize"`
	Consumed      bool                       `json:"consumed"`
	WorldID       string                     `json:"world_id,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

// snapshotPayloadFrom flattens a controller snapshot into the wire shape.
// Markdown rendering happens here so every surface sees identical HTML.
func snapshotPayloadFrom(snap store.Snapshot, reg *registry.Registry) snapshotPayload {
	messages := make([]messagePayload, 0, len(snap.Session.Conversation))
	for _, message := range snap.Session.Conversation {
		messages = append(messages, messagePayload{
			Role:      string(message.Role),
			Content:   message.Content,
			HTML:      pageRenderer.Render(message.Content),
			Timestamp: message.Timestamp,
		})
	}

	steps := make([]stepPayload, 0, reg.Len())
	for _, step := range reg.Steps() {
		steps = append(steps, stepPayload{
			Name:        step.Name,
			DisplayName: step.DisplayName,
			Required:    step.Required,
			Complete:    snap.Session.StepStatus[step.Name].Complete,
		})
	}

	payload := snapshotPayload{
		SessionID:   snap.Session.ID,
		Mode:        string(snap.Session.Mode),
		Messages:    messages,
		Pending:     snap.Pending,
		Streaming:   snap.Streaming,
		AssistStep:  snap.AssistStep,
		Draft:       snap.Session.Draft,
		Steps:       steps,
		CurrentStep: snap.Session.CurrentStep,
		CanFinalize: snap.CanFinalize,
		Consumed:    snap.Session.Consumed,
		WorldID:     snap.WorldID,
		Error:       snap.LastError,
	}
	if snap.Assistant != "" {
		payload.StreamingHTML = pageRenderer.Render(snap.Assistant)
	}
	if snap.AssistText != "" {
		payload.AssistHTML = pageRenderer.Render(snap.AssistText)
	}
	return payload
}
