package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emberfall/worldforge/internal/services/worldgen/storage"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	input := domain.Session{
		ID:      "sess-1",
		OwnerID: "owner-1",
		Mode:    domain.ModeAssisted,
		Conversation: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "Name my world", Timestamp: now},
			{Role: domain.RoleAssistant, Content: "The world is called Varesh.", Timestamp: now},
		},
		Draft: map[string]json.RawMessage{
			"basics": json.RawMessage(`{"name":"Varesh"}`),
		},
		CurrentStep: "geography",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateSession(context.Background(), input); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.OwnerID != input.OwnerID {
		t.Fatalf("owner_id = %q, want %q", got.OwnerID, input.OwnerID)
	}
	if got.Mode != domain.ModeAssisted {
		t.Fatalf("mode = %q, want assisted", got.Mode)
	}
	if len(got.Conversation) != 2 {
		t.Fatalf("conversation length = %d, want 2", len(got.Conversation))
	}
	if got.Conversation[1].Content != "The world is called Varesh." {
		t.Fatalf("assistant content = %q", got.Conversation[1].Content)
	}
	if string(got.Draft["basics"]) != `{"name":"Varesh"}` {
		t.Fatalf("draft basics = %s", got.Draft["basics"])
	}
	if got.CurrentStep != "geography" {
		t.Fatalf("current_step = %q", got.CurrentStep)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, now)
	}
}

func TestCreateSessionReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	session := minimalSession("sess-dup")
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.CreateSession(context.Background(), session); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want ErrAlreadyExists", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing session error = %v, want ErrNotFound", err)
	}
}

func TestSaveSessionPersistsMutations(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	session := minimalSession("sess-2")
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	session.Mode = domain.ModeManual
	session.Consumed = true
	session.Draft = map[string]json.RawMessage{"lore": json.RawMessage(`{"myth":"the sundering"}`)}
	session.UpdatedAt = session.UpdatedAt.Add(time.Hour)
	if err := store.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Mode != domain.ModeManual {
		t.Fatalf("mode = %q, want manual", got.Mode)
	}
	if !got.Consumed {
		t.Fatal("consumed = false after save")
	}
	if string(got.Draft["lore"]) != `{"myth":"the sundering"}` {
		t.Fatalf("draft lore = %s", got.Draft["lore"])
	}
}

func TestSaveSessionNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.SaveSession(context.Background(), minimalSession("ghost")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("save missing session error = %v, want ErrNotFound", err)
	}
}

func TestListSessionsByOwnerOrdersByRecency(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"sess-a", "sess-b", "sess-c"} {
		session := minimalSession(id)
		session.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.CreateSession(context.Background(), session); err != nil {
			t.Fatalf("create session %s: %v", id, err)
		}
	}
	other := minimalSession("sess-other")
	other.OwnerID = "owner-2"
	if err := store.CreateSession(context.Background(), other); err != nil {
		t.Fatalf("create session: %v", err)
	}

	sessions, err := store.ListSessionsByOwner(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("listed %d sessions, want 3", len(sessions))
	}
	if sessions[0].ID != "sess-c" || sessions[2].ID != "sess-a" {
		t.Fatalf("order = %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateSession(context.Background(), minimalSession("sess-del")); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.DeleteSession(context.Background(), "sess-del"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if err := store.DeleteSession(context.Background(), "sess-del"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.GetSession(context.Background(), "sess-del"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted session error = %v, want ErrNotFound", err)
	}
}

func TestCreateWorldEnforcesOneWorldPerSession(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)
	world := storage.World{
		ID:        "world-1",
		SessionID: "sess-1",
		OwnerID:   "owner-1",
		Name:      "Varesh",
		Content: map[string]json.RawMessage{
			"basics": json.RawMessage(`{"name":"Varesh"}`),
		},
		CreatedAt: now,
	}
	if err := store.CreateWorld(context.Background(), world); err != nil {
		t.Fatalf("create world: %v", err)
	}

	second := world
	second.ID = "world-2"
	if err := store.CreateWorld(context.Background(), second); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("second world for session error = %v, want ErrAlreadyExists", err)
	}

	got, err := store.GetWorld(context.Background(), "world-1")
	if err != nil {
		t.Fatalf("get world: %v", err)
	}
	if got.Name != "Varesh" {
		t.Fatalf("name = %q", got.Name)
	}
	if string(got.Content["basics"]) != `{"name":"Varesh"}` {
		t.Fatalf("content basics = %s", got.Content["basics"])
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
}

func TestListWorldsByOwner(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)
	for i, id := range []string{"world-a", "world-b"} {
		world := storage.World{
			ID:        id,
			SessionID: "sess-" + id,
			OwnerID:   "owner-1",
			Name:      id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateWorld(context.Background(), world); err != nil {
			t.Fatalf("create world %s: %v", id, err)
		}
	}

	worlds, err := store.ListWorldsByOwner(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("list worlds: %v", err)
	}
	if len(worlds) != 2 {
		t.Fatalf("listed %d worlds, want 2", len(worlds))
	}
	if worlds[0].ID != "world-b" {
		t.Fatalf("first world = %s, want world-b", worlds[0].ID)
	}
}

func TestTelemetryEventsAppendAndList(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	kinds := []string{"session_created", "message_sent", "session_finalized"}
	for i, kind := range kinds {
		event := storage.TelemetryEvent{
			ID:        kind,
			SessionID: "sess-1",
			Kind:      kind,
			Payload:   json.RawMessage(`{"ok":true}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendEvent(context.Background(), event); err != nil {
			t.Fatalf("append event %s: %v", kind, err)
		}
	}

	events, err := store.ListEvents(context.Background(), "sess-1", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("listed %d events, want 3", len(events))
	}
	for i, kind := range kinds {
		if events[i].Kind != kind {
			t.Fatalf("events[%d].Kind = %q, want %q", i, events[i].Kind, kind)
		}
	}
}

func minimalSession(id string) domain.Session {
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	return domain.Session{
		ID:        id,
		OwnerID:   "owner-1",
		Mode:      domain.ModeAssisted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "worldgen.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
