// Package transport implements the WebSocket control surface that feeds
// directives into a signal-graph engine.Engine and relays the runtime's
// queued events back out, standing in for the original's
// tokio-tungstenite TCP listener and event-poll loop.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/b00lduck/elementary/internal/observability"
	"github.com/b00lduck/elementary/pkg/signalgraph/engine"
)

// directiveJob is one decoded directive queued for the engine-owning
// goroutine, paired with a channel the submitting connection blocks on
// for the render result.
type directiveJob struct {
	ctx    context.Context //nolint:containedctx // carried across the channel hop to the single owning goroutine
	dir    engine.Directive
	result chan error
}

// Server upgrades incoming TCP connections to WebSocket, decodes and
// validates directive envelopes, and serializes delivery to a single
// Engine through one owning goroutine — the channel-based redesign the
// distilled spec's Open Question suggests in place of relying solely on
// Engine's internal mutex.
type Server struct {
	cfg     Config
	engine  *engine.Engine
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.REDMetrics

	upgrader   websocket.Upgrader
	directives chan directiveJob
	sessionLog *SessionLog
}

// NewServer constructs a Server. logger, tracer, and metrics may be nil;
// nil falls back to slog.Default and no tracing/metrics recording,
// matching the rest of this codebase's optional-collaborator convention.
func NewServer(cfg Config, eng *engine.Engine, logger *slog.Logger, tracer trace.Tracer, metrics *observability.REDMetrics, sessionLog *SessionLog) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:        cfg.withDefaults(),
		engine:     eng,
		logger:     logger,
		tracer:     tracer,
		metrics:    metrics,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1 << 16, WriteBufferSize: 1 << 16},
		directives: make(chan directiveJob, 64), //nolint:mnd // modest backpressure buffer, not a correctness boundary
		sessionLog: sessionLog,
	}
}

// Handler returns the http.Handler that serves the WebSocket upgrade
// endpoint, independent of ListenAndServe's own listener and background
// goroutines. Tests wire it into an httptest.Server; ListenAndServe uses
// it directly for the production listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)

	return mux
}

// StartWorkers launches the single directive-processing goroutine and the
// event poll loop, both stopping when ctx is canceled. Exposed separately
// from ListenAndServe so tests can drive Handler() through an
// httptest.Server without a real listener.
func (s *Server) StartWorkers(ctx context.Context) {
	go s.runDirectiveWorker(ctx)
	go s.runEventPoller(ctx)
}

// ListenAndServe starts the HTTP/WebSocket listener, the single
// directive-processing goroutine, and the ~30Hz event poll loop. It
// blocks until ctx is canceled or the listener fails. On cancellation it
// attempts a graceful HTTP shutdown before returning; a listener failure
// is returned without one.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	s.StartWorkers(workerCtx)

	serveErr := make(chan error, 1)

	go func() {
		s.logger.Info("transport listening", "addr", s.cfg.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // graceful-shutdown grace period
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("transport: shutdown: %w", err)
		}

		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("transport: listen: %w", err)
	}
}

// handleWebSocket upgrades one HTTP connection and serves its directive
// stream until the client disconnects. Each accepted message is decoded,
// schema-validated, and submitted to the single engine-owning goroutine;
// the render result is echoed back as an ack or error frame before the
// next message is read, mirroring the original's one-message-at-a-time
// request/response cadence over the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)

		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxDirectiveBytes)

	s.logger.Info("connection opened", "remote", r.RemoteAddr)

	for {
		msgType, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("connection read error", "error", readErr, "remote", r.RemoteAddr)
			}

			break
		}

		if msgType != websocket.TextMessage {
			s.writeError(conn, "non-text frames are not supported")

			continue
		}

		s.handleDirectiveMessage(r.Context(), conn, data)
	}

	s.logger.Info("connection closed", "remote", r.RemoteAddr)
}

func (s *Server) handleDirectiveMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	start := time.Now()

	dir, decodeErr := s.decodeDirective(data)
	malformed := decodeErr != nil

	if malformed {
		s.logger.Warn("malformed directive, falling back to empty directive", "error", decodeErr)
	}

	job := directiveJob{ctx: ctx, dir: dir, result: make(chan error, 1)}

	select {
	case s.directives <- job:
	case <-ctx.Done():
		return
	}

	var renderErr error

	select {
	case renderErr = <-job.result:
	case <-ctx.Done():
		return
	}

	if malformed {
		s.recordResult(ctx, "error", start)
		s.writeError(conn, decodeErr.Error())

		return
	}

	if renderErr != nil {
		s.logger.Error("engine render failed", "error", renderErr)
		s.recordResult(ctx, "error", start)
		s.writeError(conn, renderErr.Error())

		return
	}

	s.recordResult(ctx, "ok", start)

	if writeErr := conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"ok"}`)); writeErr != nil {
		s.logger.Warn("failed to write ack", "error", writeErr)
	}
}

func (s *Server) decodeDirective(data []byte) (engine.Directive, error) {
	if err := validateDirective(data); err != nil {
		return engine.Directive{}, err
	}

	var env wireEnvelope

	if err := json.Unmarshal(data, &env); err != nil {
		return engine.Directive{}, fmt.Errorf("transport: decode directive: %w", err)
	}

	return env.toDirective(s.cfg.MaxGraphNodes)
}

func (s *Server) recordResult(ctx context.Context, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(ctx, "directive", status, time.Since(start))
	}

	if s.sessionLog != nil {
		if err := s.sessionLog.Record("directive", map[string]any{"status": status}); err != nil {
			s.logger.Warn("session log write failed", "error", err)
		}
	}
}

func (s *Server) writeError(conn *websocket.Conn, message string) {
	payload, err := json.Marshal(map[string]string{"status": "error", "error": message})
	if err != nil {
		return
	}

	if writeErr := conn.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
		s.logger.Warn("failed to write error frame", "error", writeErr)
	}
}

// runDirectiveWorker is the single goroutine that owns s.engine for the
// lifetime of the server: every directive from every connection passes
// through here serialized, so the Engine's own mutex is defense-in-depth
// rather than the only thing preventing concurrent Render calls.
func (s *Server) runDirectiveWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.directives:
			var span trace.Span
			if s.tracer != nil {
				job.ctx, span = s.tracer.Start(job.ctx, "transport.directive")
				span.SetAttributes(attribute.Int("nodemap_size", s.engine.NodeMapSize()))
			}

			err := s.engine.Render(job.ctx, job.dir)

			if span != nil {
				span.End()
			}

			job.result <- err
		}
	}
}

// runEventPoller drains the runtime's queued events at the configured
// interval, matching the ~30Hz control-thread poll loop the original's
// run_event_poller implements with a tokio::time::interval.
func (s *Server) runEventPoller(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.EventPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, err := s.engine.PollEvents(ctx)
			if err != nil {
				s.logger.Warn("event poll failed", "error", err)

				continue
			}

			if len(events) == 0 || string(events) == "[]" {
				continue
			}

			s.logger.Debug("runtime events", "events", string(events))
		}
	}
}
