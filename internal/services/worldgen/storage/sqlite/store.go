// Package sqlite provides a SQLite-backed worldgen storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/emberfall/worldforge/internal/platform/storage/sqlitemigrate"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage/sqlite/migrations"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists worldgen state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite worldgen store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts one session record.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	conversation, draft, err := encodeSessionBlobs(session)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO worldgen_sessions (
		   id, owner_id, mode, conversation, draft,
		   current_step, consumed, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.OwnerID,
		string(session.Mode),
		conversation,
		draft,
		session.CurrentStep,
		boolToInt(session.Consumed),
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, owner_id, mode, conversation, draft,
		        current_step, consumed, created_at, updated_at
		   FROM worldgen_sessions
		  WHERE id = ?`,
		id,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// SaveSession overwrites one session record.
func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	conversation, draft, err := encodeSessionBlobs(session)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE worldgen_sessions
		    SET mode = ?, conversation = ?, draft = ?,
		        current_step = ?, consumed = ?, updated_at = ?
		  WHERE id = ?`,
		string(session.Mode),
		conversation,
		draft,
		session.CurrentStep,
		boolToInt(session.Consumed),
		toMillis(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListSessionsByOwner returns an owner's sessions, most recent first.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, owner_id, mode, conversation, draft,
		        current_step, consumed, created_at, updated_at
		   FROM worldgen_sessions
		  WHERE owner_id = ?
		  ORDER BY updated_at DESC
		  LIMIT ?`,
		ownerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes one session record. Missing rows are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM worldgen_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CreateWorld inserts one finalized world.
func (s *Store) CreateWorld(ctx context.Context, world storage.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(world.ID) == "" {
		return fmt.Errorf("world id is required")
	}
	if strings.TrimSpace(world.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	content, err := json.Marshal(world.Content)
	if err != nil {
		return fmt.Errorf("encode world content: %w", err)
	}
	createdAt := world.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO worlds (id, session_id, owner_id, name, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		world.ID,
		world.SessionID,
		world.OwnerID,
		world.Name,
		string(content),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create world: %w", err)
	}
	return nil
}

// GetWorld returns one world by ID.
func (s *Store) GetWorld(ctx context.Context, id string) (storage.World, error) {
	if err := ctx.Err(); err != nil {
		return storage.World{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.World{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.World{}, fmt.Errorf("world id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session_id, owner_id, name, content, created_at
		   FROM worlds
		  WHERE id = ?`,
		id,
	)
	var world storage.World
	var content string
	var createdAt int64
	if err := row.Scan(&world.ID, &world.SessionID, &world.OwnerID, &world.Name, &content, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.World{}, storage.ErrNotFound
		}
		return storage.World{}, fmt.Errorf("get world: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &world.Content); err != nil {
		return storage.World{}, fmt.Errorf("decode world content: %w", err)
	}
	world.CreatedAt = fromMillis(createdAt)
	return world, nil
}

// ListWorldsByOwner returns an owner's worlds, most recent first.
func (s *Store) ListWorldsByOwner(ctx context.Context, ownerID string, limit int) ([]storage.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, owner_id, name, content, created_at
		   FROM worlds
		  WHERE owner_id = ?
		  ORDER BY created_at DESC
		  LIMIT ?`,
		ownerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	defer rows.Close()

	var worlds []storage.World
	for rows.Next() {
		var world storage.World
		var content string
		var createdAt int64
		if err := rows.Scan(&world.ID, &world.SessionID, &world.OwnerID, &world.Name, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("list worlds: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &world.Content); err != nil {
			return nil, fmt.Errorf("decode world content: %w", err)
		}
		world.CreatedAt = fromMillis(createdAt)
		worlds = append(worlds, world)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	return worlds, nil
}

// AppendEvent inserts one telemetry event.
func (s *Store) AppendEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(event.Kind) == "" {
		return fmt.Errorf("event kind is required")
	}
	payload := event.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (id, session_id, kind, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.SessionID,
		event.Kind,
		string(payload),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// ListEvents returns a session's telemetry events in append order.
func (s *Store) ListEvents(ctx context.Context, sessionID string, limit int) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, kind, payload, created_at
		   FROM telemetry_events
		  WHERE session_id = ?
		  ORDER BY created_at ASC
		  LIMIT ?`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var events []storage.TelemetryEvent
	for rows.Next() {
		var event storage.TelemetryEvent
		var payload string
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.SessionID, &event.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("list telemetry events: %w", err)
		}
		event.Payload = json.RawMessage(payload)
		event.CreatedAt = fromMillis(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var session domain.Session
	var mode string
	var conversation string
	var draft string
	var consumed int
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&session.ID,
		&session.OwnerID,
		&mode,
		&conversation,
		&draft,
		&session.CurrentStep,
		&consumed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	if err := json.Unmarshal([]byte(conversation), &session.Conversation); err != nil {
		return domain.Session{}, fmt.Errorf("decode conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(draft), &session.Draft); err != nil {
		return domain.Session{}, fmt.Errorf("decode draft: %w", err)
	}
	session.Mode = domain.Mode(mode)
	session.Consumed = consumed != 0
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

func encodeSessionBlobs(session domain.Session) (string, string, error) {
	conversation := session.Conversation
	if conversation == nil {
		conversation = []domain.ChatMessage{}
	}
	conversationJSON, err := json.Marshal(conversation)
	if err != nil {
		return "", "", fmt.Errorf("encode conversation: %w", err)
	}
	draft := session.Draft
	if draft == nil {
		draft = map[string]json.RawMessage{}
	}
	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return "", "", fmt.Errorf("encode draft: %w", err)
	}
	return string(conversationJSON), string(draftJSON), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}
