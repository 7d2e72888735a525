package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/emberfall/worldforge/internal/errors"
	"github.com/emberfall/worldforge/internal/platform/assets"
	"github.com/emberfall/worldforge/internal/platform/requestctx"
	"github.com/emberfall/worldforge/internal/platform/timeouts"
	"github.com/emberfall/worldforge/internal/platform/token"
	"github.com/emberfall/worldforge/internal/services/worldgen/narrator"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage/sqlite"
	"github.com/emberfall/worldforge/internal/telemetry"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/registry"
	"github.com/emberfall/worldforge/internal/worldgen/store"
)

const (
	tokenCookieName = "wf_token"

	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3

	maxMessageRunes = 4000

	assistFrameTimeout = 120 * time.Second
)

// Config defines the inputs for the worldgen transport boundary.
type Config struct {
	HTTPAddr          string
	StoragePath       string
	NarratorBaseURL   string
	NarratorAPIKey    string
	Token             token.Config
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the worldgen HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	storage         *sqlite.Store
}

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type createPayload struct {
	Mode string `json:"mode,omitempty"`
}

type joinPayload struct {
	SessionID string `json:"session_id"`
}

type joinedPayload struct {
	SessionID  string `json:"session_id"`
	ServerTime string `json:"server_time"`
}

type sendPayload struct {
	Text string `json:"text"`
}

type assistPayload struct {
	Step string `json:"step"`
	Text string `json:"text"`
}

type assistResultPayload struct {
	Step    string `json:"step"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

type switchModePayload struct {
	Mode string `json:"mode"`
}

type updateStepPayload struct {
	Step    string          `json:"step"`
	Content json.RawMessage `json:"content"`
}

type finalizedPayload struct {
	WorldID string `json:"world_id"`
}

// wsPeer serializes frame writes onto one websocket connection.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// wsSession is the per-connection state: the player identity and the
// session controller this connection drives.
type wsSession struct {
	playerID    string
	peer        *wsPeer
	controller  *store.Store
	unsubscribe func()
}

// NewServer builds a configured worldgen server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.StoragePath) == "" {
		return nil, errors.New("storage path is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	db, err := sqlite.Open(config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open worldgen storage: %w", err)
	}

	narratorClient, err := narrator.NewHTTPClient(config.NarratorBaseURL, config.NarratorAPIKey, nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init narrator client: %w", err)
	}

	gateway := NewGateway(db, db, narratorClient, telemetry.NewEmitter(db))
	requireAuth := len(config.Token.Secret) > 0
	if !requireAuth {
		log.Printf("worldgen: token secret not configured, websocket auth disabled")
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           newHandler(gateway, registry.Default(), config.Token, requireAuth),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		storage:         db,
	}, nil
}

// Run creates and serves a worldgen server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init worldgen server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve worldgen: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("worldgen server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("worldgen server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			log.Printf("close worldgen storage: %v", err)
		}
	}
}

// NewHandler creates worldgen routes without websocket identity checks,
// for local development and tests.
func NewHandler(gateway *Gateway, reg *registry.Registry) http.Handler {
	return newHandler(gateway, reg, token.Config{}, false)
}

func newHandler(gateway *Gateway, reg *registry.Registry, tokenCfg token.Config, requireAuth bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", handleIndex)
	mux.Handle("/assets/", assets.Handler("/assets/"))

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, gateway, reg)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if requireAuth {
			accessToken := accessTokenFromRequest(r)
			if accessToken == "" {
				log.Printf("worldgen: websocket unauthorized: missing wf_token for remote=%s", r.RemoteAddr)
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			claims, err := token.Verify(accessToken, tokenCfg)
			if err != nil {
				log.Printf("worldgen: websocket unauthorized: token verify failed remote=%s err=%v", r.RemoteAddr, err)
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			r = r.WithContext(requestctx.WithPlayerID(r.Context(), claims.PlayerID))
		}

		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

func accessTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if value, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(value)
		}
	}
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func handleWSConn(conn *websocket.Conn, gateway *Gateway, reg *registry.Registry) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	peer := newWSPeer(json.NewEncoder(conn))
	playerID := "player"
	if request := conn.Request(); request != nil {
		if resolved := strings.TrimSpace(requestctx.PlayerIDFromContext(request.Context())); resolved != "" {
			playerID = resolved
		}
	}

	session := &wsSession{
		playerID:   playerID,
		peer:       peer,
		controller: store.New(gateway, reg, nil, nil),
	}
	session.unsubscribe = session.controller.Subscribe(func(snap store.Snapshot) {
		if !snap.Loaded {
			return
		}
		if err := peer.writeFrame(wsFrame{Type: "worldgen.delta", Payload: mustJSON(snapshotPayloadFrom(snap, reg))}); err != nil {
			log.Printf("worldgen: delta push failed player=%q err=%v", playerID, err)
		}
	})
	defer func() {
		session.unsubscribe()
		session.controller.Clear()
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		ctx := context.Background()
		if request := conn.Request(); request != nil {
			ctx = request.Context()
		}

		switch frame.Type {
		case "worldgen.create":
			handleCreateFrame(ctx, session, gateway, frame)
		case "worldgen.join":
			handleJoinFrame(ctx, session, frame)
		case "worldgen.send":
			handleSendFrame(ctx, session, frame)
		case "worldgen.assist":
			handleAssistFrame(ctx, session, frame)
		case "worldgen.switch_mode":
			handleSwitchModeFrame(ctx, session, frame)
		case "worldgen.update_step":
			handleUpdateStepFrame(ctx, session, frame)
		case "worldgen.finalize":
			handleFinalizeFrame(ctx, session, frame)
		case "worldgen.state":
			handleStateFrame(session, frame)
		default:
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func handleCreateFrame(ctx context.Context, session *wsSession, gateway *Gateway, frame wsFrame) {
	var payload createPayload
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid create payload")
			return
		}
	}

	mode := domain.ModeAssisted
	if strings.TrimSpace(payload.Mode) != "" {
		parsed, err := domain.ParseMode(payload.Mode)
		if err != nil {
			_ = writeWSError(session.peer, frame.RequestID, string(apperrors.CodeInvalidMode), "unknown mode")
			return
		}
		mode = parsed
	}

	created, err := gateway.CreateSession(ctx, session.playerID, mode)
	if err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	if err := session.controller.Load(ctx, created.ID); err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	writeJoined(session.peer, frame.RequestID, created.ID)
}

func handleJoinFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload joinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || strings.TrimSpace(payload.SessionID) == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "session_id is required")
		return
	}

	if err := session.controller.Load(ctx, strings.TrimSpace(payload.SessionID)); err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}

	snap := session.controller.Snapshot()
	if snap.Session.OwnerID != session.playerID {
		session.controller.Clear()
		_ = writeWSError(session.peer, frame.RequestID, string(apperrors.CodePermissionDenied), "session belongs to another player")
		return
	}
	writeJoined(session.peer, frame.RequestID, snap.Session.ID)
}

func handleSendFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload sendPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid send payload")
		return
	}
	if len([]rune(payload.Text)) > maxMessageRunes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "message too long")
		return
	}

	if err := session.controller.SendMessage(ctx, payload.Text); err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	writeAck(session.peer, frame.RequestID)
}

func handleAssistFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload assistPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid assist payload")
		return
	}
	if len([]rune(payload.Text)) > maxMessageRunes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "message too long")
		return
	}

	// Assist blocks until the narrator finishes; bound it so one stuck
	// exchange cannot pin the connection forever.
	assistCtx, cancel := context.WithTimeout(ctx, assistFrameTimeout)
	defer cancel()

	content, err := session.controller.Assist(assistCtx, payload.Step, payload.Text)
	if err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	_ = session.peer.writeFrame(wsFrame{
		Type:      "worldgen.assist_result",
		RequestID: frame.RequestID,
		Payload: mustJSON(assistResultPayload{
			Step:    payload.Step,
			Content: content,
			HTML:    pageRenderer.Render(content),
		}),
	})
}

func handleSwitchModeFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload switchModePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid switch_mode payload")
		return
	}
	mode, err := domain.ParseMode(payload.Mode)
	if err != nil {
		_ = writeWSError(session.peer, frame.RequestID, string(apperrors.CodeInvalidMode), "unknown mode")
		return
	}

	if err := session.controller.SwitchMode(ctx, mode); err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	writeAck(session.peer, frame.RequestID)
}

func handleUpdateStepFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	var payload updateStepPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid update_step payload")
		return
	}

	if err := session.controller.UpdateStep(ctx, payload.Step, payload.Content); err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	writeAck(session.peer, frame.RequestID)
}

func handleFinalizeFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	worldID, err := session.controller.Finalize(ctx)
	if err != nil {
		writeAppError(session.peer, frame.RequestID, err)
		return
	}
	_ = session.peer.writeFrame(wsFrame{
		Type:      "worldgen.finalized",
		RequestID: frame.RequestID,
		Payload:   mustJSON(finalizedPayload{WorldID: worldID}),
	})
}

func handleStateFrame(session *wsSession, frame wsFrame) {
	snap := session.controller.Snapshot()
	if !snap.Loaded {
		_ = writeWSError(session.peer, frame.RequestID, string(apperrors.CodeSessionNotFound), "no session joined")
		return
	}
	_ = session.peer.writeFrame(wsFrame{
		Type:      "worldgen.state",
		RequestID: frame.RequestID,
		Payload:   mustJSON(snapshotPayloadFrom(snap, session.controller.Registry())),
	})
}

func writeJoined(peer *wsPeer, requestID, sessionID string) {
	_ = peer.writeFrame(wsFrame{
		Type:      "worldgen.joined",
		RequestID: requestID,
		Payload: mustJSON(joinedPayload{
			SessionID:  sessionID,
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		}),
	})
}

func writeAck(peer *wsPeer, requestID string) {
	_ = peer.writeFrame(wsFrame{Type: "worldgen.ack", RequestID: requestID})
}

// writeAppError maps a typed application error onto the wire taxonomy.
func writeAppError(peer *wsPeer, requestID string, err error) {
	code := apperrors.GetCode(err)
	retryable := code == apperrors.CodeNetwork || code == apperrors.CodeStreamBusy
	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	_ = peer.writeFrame(wsFrame{
		Type:      "worldgen.error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{Code: string(code), Message: message, Retryable: retryable},
		}),
	})
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type:      "worldgen.error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{Code: code, Message: message, Retryable: false},
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
