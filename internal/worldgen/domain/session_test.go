package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestCreateSessionDefaults(t *testing.T) {
	session, err := CreateSession(CreateSessionInput{OwnerID: " player-1 "}, fixedClock, func() (string, error) {
		return "session-1", nil
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "session-1" {
		t.Fatalf("expected generated id, got %q", session.ID)
	}
	if session.OwnerID != "player-1" {
		t.Fatalf("expected trimmed owner id, got %q", session.OwnerID)
	}
	if session.Mode != ModeAssisted {
		t.Fatalf("expected assisted default mode, got %q", session.Mode)
	}
	if session.Consumed {
		t.Fatal("new session must not be consumed")
	}
	if !session.CreatedAt.Equal(fixedClock()) || !session.UpdatedAt.Equal(fixedClock()) {
		t.Fatal("expected injected clock timestamps")
	}
}

func TestCreateSessionRejectsEmptyOwner(t *testing.T) {
	_, err := CreateSession(CreateSessionInput{}, fixedClock, nil)
	if !errors.Is(err, ErrEmptyOwnerID) {
		t.Fatalf("expected ErrEmptyOwnerID, got %v", err)
	}
}

func TestCreateSessionRejectsInvalidMode(t *testing.T) {
	_, err := CreateSession(CreateSessionInput{OwnerID: "p", Mode: "turbo"}, fixedClock, nil)
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Manual ")
	if err != nil {
		t.Fatalf("parse mode: %v", err)
	}
	if mode != ModeManual {
		t.Fatalf("expected manual, got %q", mode)
	}
	if _, err := ParseMode("hybrid"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestNewChatMessage(t *testing.T) {
	msg, err := NewChatMessage(RoleUser, "Describe the capital city", fixedClock())
	if err != nil {
		t.Fatalf("new chat message: %v", err)
	}
	if msg.Role != RoleUser || msg.Content != "Describe the capital city" {
		t.Fatalf("unexpected message %+v", msg)
	}

	if _, err := NewChatMessage(RoleAssistant, "   ", fixedClock()); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := NewChatMessage("system", "hello", fixedClock()); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	original := Session{
		ID:   "s",
		Mode: ModeAssisted,
		Conversation: []ChatMessage{
			{Role: RoleUser, Content: "hello", Timestamp: fixedClock()},
		},
		Draft: map[string]json.RawMessage{
			"basics": json.RawMessage(`{"name":"Varesh"}`),
		},
		StepStatus: map[string]StepStatus{
			"basics": {Complete: true},
		},
	}

	cloned := original.Clone()
	cloned.Conversation[0].Content = "changed"
	cloned.Draft["basics"][2] = 'X'
	cloned.StepStatus["basics"] = StepStatus{Complete: false}

	if original.Conversation[0].Content != "hello" {
		t.Fatal("clone shares conversation backing array")
	}
	if string(original.Draft["basics"]) != `{"name":"Varesh"}` {
		t.Fatal("clone shares draft payload bytes")
	}
	if !original.StepStatus["basics"].Complete {
		t.Fatal("clone shares step status map")
	}
}

func TestStreamEventTerminal(t *testing.T) {
	if (StreamEvent{Type: StreamEventChunk}).Terminal() {
		t.Fatal("chunk must not be terminal")
	}
	for _, eventType := range []StreamEventType{StreamEventComplete, StreamEventError, StreamEventAborted} {
		if !(StreamEvent{Type: eventType}).Terminal() {
			t.Fatalf("%s must be terminal", eventType)
		}
	}
}
