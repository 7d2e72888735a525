package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "github.com/emberfall/worldforge/internal/errors"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/registry"
	"github.com/emberfall/worldforge/internal/worldgen/stream"
	"github.com/emberfall/worldforge/internal/worldgen/track"
)

// persistTimeout bounds background persistence after a stream commit,
// where no request context is available.
const persistTimeout = 10 * time.Second

// Gateway is the store's view of the outside world: session storage plus
// the narrator service. Streaming calls return a handle immediately;
// events arrive on the handle's channel.
type Gateway interface {
	GetSession(ctx context.Context, id string) (domain.Session, error)
	SaveSession(ctx context.Context, session domain.Session) error
	StreamMessage(ctx context.Context, session domain.Session, text string) (*stream.Stream, error)
	StreamAssist(ctx context.Context, session domain.Session, step, text string) (*stream.Stream, error)
	Finalize(ctx context.Context, session domain.Session) (string, error)
}

// StepExtractor derives structured draft updates from a committed
// assistant message. The default implementation trusts the structured
// updates the narrator attached to the complete event.
type StepExtractor func(message domain.ChatMessage, currentStep string, updates map[string]json.RawMessage) map[string]json.RawMessage

// DefaultExtractor passes the narrator's structured updates through
// unchanged.
func DefaultExtractor(_ domain.ChatMessage, _ string, updates map[string]json.RawMessage) map[string]json.RawMessage {
	return updates
}

// Snapshot is the immutable view published to subscribers after every
// state fold. Session is a deep copy; mutating a snapshot affects nothing.
type Snapshot struct {
	Loaded      bool
	Session     domain.Session
	Pending     string
	Streaming   bool
	Assistant   string
	AssistStep  string
	AssistText  string
	CanFinalize bool
	WorldID     string
	LastError   string
}

// Store is the single writer for one world-building session. All
// mutations fold under its lock; observers only ever see snapshots taken
// between folds.
type Store struct {
	gateway  Gateway
	registry *registry.Registry
	streams  *stream.Manager
	extract  StepExtractor
	now      func() time.Time

	mu          sync.Mutex
	gate        ModeGate
	session     *domain.Session
	pending     string
	assistant   strings.Builder
	assistStep  string
	assistText  string
	streaming   bool
	canFinalize bool
	worldID     string
	lastError   string
	generation  uint64

	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// New builds a session store. extract and now may be nil for defaults.
func New(gateway Gateway, reg *registry.Registry, extract StepExtractor, now func() time.Time) *Store {
	if extract == nil {
		extract = DefaultExtractor
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		gateway:     gateway,
		registry:    reg,
		streams:     stream.NewManager(),
		extract:     extract,
		now:         now,
		gate:        NewModeGate(domain.ModeAssisted),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers a snapshot observer and immediately delivers the
// current state. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	snap := s.snapshotLocked()
	s.mu.Unlock()

	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Registry exposes the step catalog the store evaluates against.
func (s *Store) Registry() *registry.Registry {
	return s.registry
}

// Snapshot returns the current state without subscribing.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Load replaces the store's session with the stored aggregate and
// recomputes derived completion state. Any open stream is canceled.
func (s *Store) Load(ctx context.Context, id string) error {
	session, err := s.gateway.GetSession(ctx, id)
	if err != nil {
		return coerce(apperrors.CodeSessionNotFound, "load session", err)
	}

	s.mu.Lock()
	s.cancelStreamLocked()
	loaded := session.Clone()
	s.session = &loaded
	s.gate = NewModeGate(loaded.Mode)
	s.worldID = ""
	s.lastError = ""
	s.retrackLocked()
	s.mu.Unlock()

	s.publish()
	return nil
}

// SendMessage starts an assisted chat exchange. The user text is held in
// the pending buffer until the narrator completes; on completion both
// messages are committed atomically with any draft updates. The call
// returns once the stream is open; events fold asynchronously.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.gate.AllowsStreaming() {
		s.mu.Unlock()
		return apperrors.New(apperrors.CodeModeDisallowsOp, "chat is disabled in manual mode")
	}
	if text == "" {
		s.mu.Unlock()
		return apperrors.New(apperrors.CodeInvalidRequest, "message content is required")
	}
	if s.streaming {
		s.mu.Unlock()
		return apperrors.New(apperrors.CodeStreamBusy, "a narrator response is already in progress")
	}
	session := s.session.Clone()
	s.pending = text
	s.streaming = true
	s.assistant.Reset()
	s.lastError = ""
	gen := s.generation
	s.mu.Unlock()

	s.publish()

	st, err := s.gateway.StreamMessage(ctx, session, text)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.pending = ""
			s.streaming = false
			s.lastError = "narrator is unavailable"
		}
		s.mu.Unlock()
		s.publish()
		return coerce(apperrors.CodeNetwork, "start narrator stream", err)
	}

	s.streams.Begin(session.ID, st)
	go s.consume(gen, session.ID, text, st)
	return nil
}

// consume folds one stream's events into the aggregate until a terminal
// event or cancellation.
func (s *Store) consume(gen uint64, sessionID, userText string, st *stream.Stream) {
	defer s.streams.Release(sessionID, st)
	for {
		select {
		case event, ok := <-st.Events():
			if !ok {
				return
			}
			if s.fold(gen, userText, event) {
				return
			}
		case <-st.Done():
			s.fold(gen, userText, domain.StreamEvent{Type: domain.StreamEventAborted})
			return
		}
	}
}

// fold applies one stream event under the lock. Events carrying a stale
// generation are discarded: the stream they belong to was superseded and
// must not touch current state. Reports whether the stream is finished.
func (s *Store) fold(gen uint64, userText string, event domain.StreamEvent) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return true
	}

	switch event.Type {
	case domain.StreamEventChunk:
		s.assistant.WriteString(event.Delta)
		s.mu.Unlock()
		s.publish()
		return false

	case domain.StreamEventComplete:
		persist := s.commitExchangeLocked(userText, event)
		s.mu.Unlock()
		s.publish()
		s.persistAsync(persist)
		return true

	case domain.StreamEventError:
		s.pending = ""
		s.assistant.Reset()
		s.streaming = false
		s.lastError = event.Reason
		if s.lastError == "" {
			s.lastError = "narrator stream failed"
		}
		s.mu.Unlock()
		s.publish()
		return true

	default: // aborted
		s.pending = ""
		s.assistant.Reset()
		s.streaming = false
		s.mu.Unlock()
		s.publish()
		return true
	}
}

// commitExchangeLocked appends the pending user message and the final
// assistant message, merges draft updates, and recomputes completion
// state. Returns a deep copy for persistence.
func (s *Store) commitExchangeLocked(userText string, event domain.StreamEvent) domain.Session {
	now := s.now().UTC()
	content := event.Content
	if content == "" {
		content = s.assistant.String()
	}

	s.session.Conversation = append(s.session.Conversation,
		domain.ChatMessage{Role: domain.RoleUser, Content: userText, Timestamp: now})
	assistantMsg := domain.ChatMessage{Role: domain.RoleAssistant, Content: content, Timestamp: now}
	if content != "" {
		s.session.Conversation = append(s.session.Conversation, assistantMsg)
	}

	if s.session.Draft == nil {
		s.session.Draft = map[string]json.RawMessage{}
	}
	for step, payload := range s.extract(assistantMsg, s.session.CurrentStep, event.StepUpdates) {
		if !s.registry.Contains(step) {
			continue
		}
		s.session.Draft[step] = append(json.RawMessage(nil), payload...)
	}

	s.session.UpdatedAt = now
	s.pending = ""
	s.assistant.Reset()
	s.streaming = false
	s.retrackLocked()
	return s.session.Clone()
}

// Assist runs a scoped narrator exchange about one step. The exchange is
// not appended to the main conversation; the final text is returned for
// the caller to commit explicitly. Blocks until the stream finishes.
func (s *Store) Assist(ctx context.Context, step, text string) (string, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if !s.registry.Contains(step) {
		s.mu.Unlock()
		return "", apperrors.Newf(apperrors.CodeStepUnknown, "unknown step %q", step)
	}
	if text == "" {
		s.mu.Unlock()
		return "", apperrors.New(apperrors.CodeInvalidRequest, "message content is required")
	}
	if s.streaming {
		s.mu.Unlock()
		return "", apperrors.New(apperrors.CodeStreamBusy, "a narrator response is already in progress")
	}
	session := s.session.Clone()
	s.streaming = true
	s.assistStep = step
	s.assistText = ""
	s.lastError = ""
	gen := s.generation
	s.mu.Unlock()

	s.publish()

	st, err := s.gateway.StreamAssist(ctx, session, step, text)
	if err != nil {
		s.resetAssist(gen)
		return "", coerce(apperrors.CodeNetwork, "start assist stream", err)
	}

	s.streams.Begin(session.ID, st)
	defer s.streams.Release(session.ID, st)

	for {
		select {
		case event, ok := <-st.Events():
			if !ok {
				s.resetAssist(gen)
				return "", apperrors.New(apperrors.CodeStreamAborted, "assist canceled")
			}
			switch event.Type {
			case domain.StreamEventChunk:
				s.mu.Lock()
				if s.generation != gen {
					s.mu.Unlock()
					return "", apperrors.New(apperrors.CodeStreamAborted, "assist canceled")
				}
				s.assistText += event.Delta
				s.mu.Unlock()
				s.publish()
			case domain.StreamEventComplete:
				content := event.Content
				s.mu.Lock()
				if content == "" && s.generation == gen {
					content = s.assistText
				}
				s.mu.Unlock()
				s.resetAssist(gen)
				return content, nil
			case domain.StreamEventError:
				s.resetAssist(gen)
				reason := event.Reason
				if reason == "" {
					reason = "narrator stream failed"
				}
				return "", apperrors.Newf(apperrors.CodeNetwork, "assist failed: %s", reason)
			default:
				s.resetAssist(gen)
				return "", apperrors.New(apperrors.CodeStreamAborted, "assist canceled")
			}
		case <-st.Done():
			s.resetAssist(gen)
			return "", apperrors.New(apperrors.CodeStreamAborted, "assist canceled")
		}
	}
}

func (s *Store) resetAssist(gen uint64) {
	s.mu.Lock()
	if s.generation == gen {
		s.streaming = false
		s.assistStep = ""
		s.assistText = ""
	}
	s.mu.Unlock()
	s.publish()
}

// SwitchMode transitions the collaboration mode. Any open stream is
// canceled and its partial output discarded before the mode changes. A
// failed persistence restores the previous mode.
func (s *Store) SwitchMode(ctx context.Context, mode domain.Mode) error {
	if !mode.IsValid() {
		return apperrors.Newf(apperrors.CodeInvalidMode, "unknown mode %q", mode)
	}

	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.gate.Mode() == mode {
		s.mu.Unlock()
		return nil
	}
	s.cancelStreamLocked()
	previous := s.session.Mode
	s.session.Mode = mode
	s.session.UpdatedAt = s.now().UTC()
	s.gate.Set(mode)
	persist := s.session.Clone()
	s.mu.Unlock()

	s.publish()

	if err := s.gateway.SaveSession(ctx, persist); err != nil {
		s.mu.Lock()
		if s.session != nil {
			s.session.Mode = previous
			s.gate.Set(previous)
		}
		s.mu.Unlock()
		s.publish()
		return coerce(apperrors.CodeUnknown, "persist mode switch", err)
	}
	return nil
}

// UpdateStep writes draft content for one step directly. Only permitted
// in manual mode. A failed persistence restores the previous content.
func (s *Store) UpdateStep(ctx context.Context, step string, content json.RawMessage) error {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.gate.AllowsManualEdit() {
		s.mu.Unlock()
		return apperrors.New(apperrors.CodeModeDisallowsOp, "direct editing is disabled in assisted mode")
	}
	if !s.registry.Contains(step) {
		s.mu.Unlock()
		return apperrors.Newf(apperrors.CodeStepUnknown, "unknown step %q", step)
	}
	if !json.Valid(content) {
		s.mu.Unlock()
		return apperrors.New(apperrors.CodeValidation, "step content must be valid JSON")
	}
	if s.session.Draft == nil {
		s.session.Draft = map[string]json.RawMessage{}
	}
	previous, hadPrevious := s.session.Draft[step]
	s.session.Draft[step] = append(json.RawMessage(nil), content...)
	s.session.UpdatedAt = s.now().UTC()
	s.retrackLocked()
	persist := s.session.Clone()
	s.mu.Unlock()

	s.publish()

	if err := s.gateway.SaveSession(ctx, persist); err != nil {
		s.mu.Lock()
		if s.session != nil {
			if hadPrevious {
				s.session.Draft[step] = previous
			} else {
				delete(s.session.Draft, step)
			}
			s.retrackLocked()
		}
		s.mu.Unlock()
		s.publish()
		return coerce(apperrors.CodeUnknown, "persist step update", err)
	}
	return nil
}

// Finalize seals the session into a playable world. The readiness check
// is side-effect free; the session is marked consumed only after the
// gateway reports success, after which every mutating operation fails.
func (s *Store) Finalize(ctx context.Context) (string, error) {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if s.streaming {
		s.mu.Unlock()
		return "", apperrors.New(apperrors.CodeStreamBusy, "a narrator response is already in progress")
	}
	if !s.canFinalize {
		step := s.session.CurrentStep
		s.mu.Unlock()
		return "", apperrors.Newf(apperrors.CodeFinalizeNotReady, "required steps are incomplete; next is %q", step)
	}
	persist := s.session.Clone()
	s.mu.Unlock()

	worldID, err := s.gateway.Finalize(ctx, persist)
	if err != nil {
		return "", coerce(apperrors.CodeUnknown, "finalize session", err)
	}

	s.mu.Lock()
	if s.session != nil && s.session.ID == persist.ID {
		s.session.Consumed = true
		s.session.UpdatedAt = s.now().UTC()
		s.worldID = worldID
	}
	s.mu.Unlock()

	s.publish()
	return worldID, nil
}

// Clear drops the loaded session and cancels any open stream. Safe to
// call at any time, including with nothing loaded.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cancelStreamLocked()
	s.session = nil
	s.gate = NewModeGate(domain.ModeAssisted)
	s.canFinalize = false
	s.worldID = ""
	s.lastError = ""
	s.mu.Unlock()

	s.publish()
}

// mutableLocked gates every mutating operation: a session must be loaded
// and must not have been consumed by finalization.
func (s *Store) mutableLocked() error {
	if s.session == nil {
		return apperrors.New(apperrors.CodeSessionNotFound, "no session loaded")
	}
	if s.session.Consumed {
		return apperrors.New(apperrors.CodeSessionConsumed, "session already finalized")
	}
	return nil
}

// cancelStreamLocked bumps the generation so in-flight folds become
// stale, cancels the active stream, and discards partial buffers.
func (s *Store) cancelStreamLocked() {
	s.generation++
	s.pending = ""
	s.assistant.Reset()
	s.assistStep = ""
	s.assistText = ""
	s.streaming = false
	if s.session != nil {
		s.streams.CancelActive(s.session.ID)
	}
}

// retrackLocked recomputes step statuses, the current step, and the
// finalize gate from the draft.
func (s *Store) retrackLocked() {
	progress := track.Evaluate(s.registry, s.session.Draft)
	s.session.StepStatus = progress.Status
	s.session.CurrentStep = progress.CurrentStep
	s.canFinalize = progress.CanFinalize
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Pending:     s.pending,
		Streaming:   s.streaming,
		Assistant:   s.assistant.String(),
		AssistStep:  s.assistStep,
		AssistText:  s.assistText,
		CanFinalize: s.canFinalize,
		WorldID:     s.worldID,
		LastError:   s.lastError,
	}
	if s.session != nil {
		snap.Loaded = true
		snap.Session = s.session.Clone()
	}
	return snap
}

// publish broadcasts a fresh snapshot to all subscribers. The snapshot is
// built under the lock; callbacks run outside it.
func (s *Store) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// persistAsync saves a committed exchange in the background; the stream
// consumer has no request context to borrow. Failures are surfaced on
// the next snapshot rather than blocking the fold.
func (s *Store) persistAsync(session domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.gateway.SaveSession(ctx, session); err != nil {
		s.mu.Lock()
		s.lastError = "failed to save session"
		s.mu.Unlock()
		s.publish()
	}
}

// coerce preserves typed application errors and wraps everything else.
func coerce(code apperrors.Code, message string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(code, message, err)
}
