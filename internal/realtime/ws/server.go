package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/modules/tutor"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

const (
	msgGenerationFailed = "Sorry, I couldn't generate a response. Please try again."
	msgPersistFailed    = "Something went wrong while saving the conversation. Please reconnect."
	msgSessionFailed    = "Could not open the conversation."
)

// Pipeline runs one learner message to completion.
type Pipeline interface {
	Run(ctx context.Context, in tutor.TurnInput, emit tutor.Emitter) (*tutor.TurnResult, error)
}

type Sessions interface {
	OpenOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*types.Session, error)
}

// Conversations finds the conversation to resume when the client names none.
type Conversations interface {
	Latest(dbc dbctx.Context) (*types.Session, error)
}

type Profiles interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
}

type Config struct {
	ReadLimit    int64
	WriteTimeout time.Duration
	PongWait     time.Duration
	PingInterval time.Duration
	// QueueSize bounds client messages waiting behind a running turn.
	// Messages beyond it are dropped.
	QueueSize int
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string
}

func ConfigFromEnv() Config {
	var origins []string
	for _, o := range strings.Split(envutil.String("WS_ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		ReadLimit:      int64(envutil.Int("WS_READ_LIMIT_BYTES", 64*1024)),
		WriteTimeout:   envutil.Duration("WS_WRITE_TIMEOUT", 10*time.Second),
		PongWait:       envutil.Duration("WS_PONG_WAIT", 60*time.Second),
		PingInterval:   envutil.Duration("WS_PING_INTERVAL", 25*time.Second),
		QueueSize:      envutil.Int("WS_QUEUE_SIZE", 8),
		AllowedOrigins: origins,
	}
}

func (c Config) withDefaults() Config {
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 * 1024
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 8
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	return c
}

type Deps struct {
	Pipeline      Pipeline
	Sessions      Sessions
	Conversations Conversations
	// Profiles is optional; without it grade and board come only from frames.
	Profiles Profiles
}

// Server upgrades authenticated requests and runs one consumer loop per
// connection.
type Server struct {
	log      *logger.Logger
	cfg      Config
	upgrader websocket.Upgrader
	deps     Deps
}

func NewServer(log *logger.Logger, cfg Config, deps Deps) *Server {
	cfg = cfg.withDefaults()
	s := &Server{log: log.With("handler", "TutorWebSocket"), cfg: cfg, deps: deps}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP expects the auth middleware to have attached request data.
// An optional ?conversation_id= selects the session; otherwise the caller's
// latest conversation is resumed or a new one started.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rd := ctxutil.GetRequestData(r.Context())
	if rd == nil || rd.UserID == "" {
		http.Error(w, `{"error":{"message":"missing or invalid token","code":"unauthorized"}}`, http.StatusUnauthorized)
		return
	}
	sessionID, err := s.resolveSession(r)
	if err != nil {
		http.Error(w, `{"error":{"message":"invalid conversation_id","code":"invalid_conversation_id"}}`, http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.serve(r.Context(), conn, rd, sessionID)
}

func (s *Server) resolveSession(r *http.Request) (uuid.UUID, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("conversation_id")); raw != "" {
		return uuid.Parse(raw)
	}
	if s.deps.Conversations != nil {
		latest, err := s.deps.Conversations.Latest(dbctx.Context{Ctx: r.Context()})
		if err != nil {
			s.log.Warn("latest conversation lookup failed; starting a new one", "error", err)
		} else if latest != nil {
			return latest.ID, nil
		}
	}
	return uuid.New(), nil
}

// conn serializes frame writes. Pings go through WriteControl, which gorilla
// allows concurrently with one writer.
type conn struct {
	ws      *websocket.Conn
	timeout time.Duration
}

type writeError struct{ err error }

func (e *writeError) Error() string { return "websocket write: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (c *conn) send(f tutor.Frame) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := c.ws.WriteJSON(f); err != nil {
		return &writeError{err: err}
	}
	observability.Current().IncFrame(f.FromAgent)
	return nil
}

func (c *conn) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.timeout))
}

func (s *Server) serve(parent context.Context, ws *websocket.Conn, rd *ctxutil.RequestData, sessionID uuid.UUID) {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer ws.Close()

	observability.Current().WSConnected()
	defer observability.Current().WSDisconnected()

	log := s.log.With("user_id", rd.UserID, "session_id", sessionID)
	c := &conn{ws: ws, timeout: s.cfg.WriteTimeout}

	if _, err := s.deps.Sessions.OpenOrCreate(ctx, sessionID, rd.UserID); err != nil {
		log.Error("open session failed", "error", err)
		_ = c.send(tutor.ErrorFrame(msgSessionFailed))
		c.close(websocket.ClosePolicyViolation, "session unavailable")
		return
	}
	profile := s.profile(ctx, log)

	if err := c.send(tutor.WelcomeFrame()); err != nil {
		log.Debug("welcome write failed", "error", err)
		return
	}
	log.Info("websocket connected")

	ws.SetReadLimit(s.cfg.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	inbox := make(chan []byte, s.cfg.QueueSize)
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readPump(ctx, cancel, ws, inbox, log)
	}()
	go func() {
		defer wg.Done()
		s.pingLoop(ctx, c)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("websocket disconnected")
			return
		case raw, ok := <-inbox:
			if !ok {
				log.Info("websocket disconnected")
				return
			}
			if !s.handle(ctx, c, rd, sessionID, profile, raw, log) {
				return
			}
		}
	}
}

// readPump forwards client messages until the socket fails, then cancels
// the connection context so an in-flight turn stops. It never blocks on a
// full inbox, so pongs and close frames are still read during a long turn.
func (s *Server) readPump(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, inbox chan<- []byte, log *logger.Logger) {
	defer close(inbox)
	defer cancel()
	for {
		typ, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		select {
		case inbox <- raw:
		case <-ctx.Done():
			return
		default:
			log.Warn("dropping client message, queue full", "queue_size", cap(inbox))
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.timeout)); err != nil {
				return
			}
		}
	}
}

func (s *Server) profile(ctx context.Context, log *logger.Logger) tutor.Profile {
	p := tutor.Profile{Grade: types.DefaultGrade}
	if s.deps.Profiles == nil {
		return p
	}
	u, err := s.deps.Profiles.GetMe(dbctx.Context{Ctx: ctx})
	if err != nil {
		log.Debug("no learner profile; using defaults", "error", err)
		return p
	}
	p.Grade = u.GradeOrDefault()
	p.Board = u.Board
	return p
}

// handle runs one client message. It returns false when the connection
// must be closed.
func (s *Server) handle(ctx context.Context, c *conn, rd *ctxutil.RequestData, sessionID uuid.UUID, profile tutor.Profile, raw []byte, log *logger.Logger) bool {
	frame, err := ParseClientFrame(raw)
	if err != nil {
		log.Debug("rejected client frame", "error", err)
		return c.send(tutor.ErrorFrame(err.Error())) == nil
	}
	if frame.Grade != "" {
		profile.Grade = frame.Grade
	}
	if frame.Board != "" {
		profile.Board = frame.Board
	}

	res, err := s.deps.Pipeline.Run(ctx, tutor.TurnInput{
		UserID:       rd.UserID,
		SessionID:    sessionID,
		Message:      frame.Payload,
		Personalized: frame.Personalized,
		Profile:      profile,
	}, c.send)
	if err == nil {
		log.Debug("turn complete", "intent", res.Intent.String(), "states", len(res.States))
		return true
	}

	var (
		pe *tutor.PersistError
		we *writeError
	)
	switch {
	case ctx.Err() != nil:
		log.Info("turn cancelled", "error", err)
		return false
	case errors.As(err, &we):
		log.Info("client went away mid-turn", "error", err)
		return false
	case errors.As(err, &pe):
		log.Error("persistence failed; closing connection", "op", pe.Op, "error", err)
		_ = c.send(tutor.ErrorFrame(msgPersistFailed))
		c.close(websocket.CloseInternalServerErr, "persistence failure")
		return false
	default:
		log.Warn("turn failed", "error", err)
		return c.send(tutor.ErrorFrame(msgGenerationFailed)) == nil
	}
}
