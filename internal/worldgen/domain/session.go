package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emberfall/worldforge/internal/platform/id"
)

// Mode selects how the user collaborates on the universe document.
type Mode string

const (
	// ModeAssisted drives the workflow through conversational exchange
	// with the narrator.
	ModeAssisted Mode = "assisted"
	// ModeManual drives the workflow through direct structured editing,
	// bypassing streaming chat.
	ModeManual Mode = "manual"
)

// IsValid reports whether the mode is a supported collaboration mode.
func (m Mode) IsValid() bool {
	return m == ModeAssisted || m == ModeManual
}

// ParseMode normalizes a wire-format mode string.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	if !mode.IsValid() {
		return "", ErrInvalidMode
	}
	return mode, nil
}

var (
	// ErrEmptyOwnerID indicates a missing owner ID.
	ErrEmptyOwnerID = errors.New("owner id is required")
	// ErrInvalidMode indicates an unsupported collaboration mode.
	ErrInvalidMode = errors.New("mode is invalid")
	// ErrEmptyMessage indicates a message with no content.
	ErrEmptyMessage = errors.New("message content is required")
	// ErrInvalidRole indicates an unsupported message role.
	ErrInvalidRole = errors.New("message role is invalid")
	// ErrSessionConsumed indicates mutation after finalization.
	ErrSessionConsumed = errors.New("session already finalized")
)

// StepStatus is the derived completion state for one step.
type StepStatus struct {
	Complete bool
}

// Session is the aggregate root for a guided world-building workflow.
//
// Conversation is append-mostly: entries are immutable once appended, and
// only the session store mutates the aggregate. Draft holds per-step
// structured content keyed by step name; StepStatus and CurrentStep are
// derived from Draft and never hand-edited.
type Session struct {
	ID           string
	OwnerID      string
	Mode         Mode
	Conversation []ChatMessage
	Draft        map[string]json.RawMessage
	StepStatus   map[string]StepStatus
	CurrentStep  string
	Consumed     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateSessionInput describes the metadata needed to create a session.
type CreateSessionInput struct {
	OwnerID string
	Mode    Mode
}

// CreateSession creates a new session with a generated ID and timestamps.
// The session starts in assisted mode unless input says otherwise.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateSessionInput(input)
	if err != nil {
		return Session{}, err
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return Session{
		ID:         sessionID,
		OwnerID:    normalized.OwnerID,
		Mode:       normalized.Mode,
		Draft:      map[string]json.RawMessage{},
		StepStatus: map[string]StepStatus{},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// NormalizeCreateSessionInput trims and validates session input metadata.
func NormalizeCreateSessionInput(input CreateSessionInput) (CreateSessionInput, error) {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	if input.OwnerID == "" {
		return CreateSessionInput{}, ErrEmptyOwnerID
	}
	if input.Mode == "" {
		input.Mode = ModeAssisted
	}
	if !input.Mode.IsValid() {
		return CreateSessionInput{}, ErrInvalidMode
	}
	return input, nil
}

// Clone returns a deep copy of the session so published snapshots never
// alias the store's mutable state.
func (s Session) Clone() Session {
	cloned := s
	if s.Conversation != nil {
		cloned.Conversation = append([]ChatMessage(nil), s.Conversation...)
	}
	if s.Draft != nil {
		cloned.Draft = make(map[string]json.RawMessage, len(s.Draft))
		for step, content := range s.Draft {
			cloned.Draft[step] = append(json.RawMessage(nil), content...)
		}
	}
	if s.StepStatus != nil {
		cloned.StepStatus = make(map[string]StepStatus, len(s.StepStatus))
		for step, status := range s.StepStatus {
			cloned.StepStatus[step] = status
		}
	}
	return cloned
}
