package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fractionalquest/onboard/api"
	"github.com/fractionalquest/onboard/internal/logging"
	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/observability"
	"github.com/fractionalquest/onboard/pkg/onboarding"
	"github.com/fractionalquest/onboard/pkg/policy"
)

// Version is stamped into /info responses by the serve command.
var Version = "dev"

// Server adapts the onboarding state machine to the HTTP gateway contract:
// every call, success or failure, answers with the current session snapshot
// so the caller and any UI observer can always resynchronize.
type Server struct {
	Machine *onboarding.Machine
	Streams *StreamManager

	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	apiDoc   []byte
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics shares an existing metrics set and its registry with the
// handler, so instrumentation registered elsewhere (such as a wrapped store)
// shows up on the same /metrics endpoint. Without it the handler keeps a
// private registry.
func WithMetrics(m *observability.Metrics, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = reg
	}
}

// NewHandler creates the HTTP handler for the gateway.
// It fails if the embedded OpenAPI document does not validate.
func NewHandler(machine *onboarding.Machine, opts ...Option) (http.Handler, error) {
	if _, err := api.Load(); err != nil {
		return nil, err
	}

	server := &Server{
		Machine: machine,
		Streams: NewStreamManager(),
		apiDoc:  api.Spec(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.metrics == nil {
		reg := prometheus.NewRegistry()
		server.metrics = observability.NewMetrics(reg)
		server.gatherer = reg
	}

	// The SSE fanout is a read-only projection of confirmed-field events.
	machine.OnFieldConfirmed(func(ev domain.FieldConfirmed) {
		if data, err := json.Marshal(ev.Session); err == nil {
			server.Streams.Broadcast(ev.Session.UserID, string(data))
		}
	})

	r := chi.NewRouter()
	r.Use(server.requestID)

	r.Post("/profiles/{userID}/fields", server.AssertField)
	r.Get("/profiles/{userID}", server.GetSession)
	r.Get("/steps", server.ListSteps)
	r.Get("/events", server.SubscribeEvents)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(server.apiDoc)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestID tags each request with a correlation ID for log stitching.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.logger.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Onboard API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// AssertRequest is the body of POST /profiles/{userID}/fields.
type AssertRequest struct {
	FieldKey string `json:"field_key"`
	RawValue string `json:"raw_value"`
}

// ErrorInfo is the structured error attached to failed responses.
type ErrorInfo struct {
	Kind     string `json:"kind"`
	FieldKey string `json:"field_key,omitempty"`
	Reason   string `json:"reason"`
}

// AssertResponse packages every gateway answer: ok flag, full snapshot, and
// a structured error when the call failed. The snapshot is present even on
// failure so the UI can resynchronize from any single message.
type AssertResponse struct {
	OK      bool            `json:"ok"`
	Session *domain.Session `json:"session,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// AssertField handles POST /profiles/{userID}/fields.
func (s *Server) AssertField(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body AssertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("AssertField: invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, AssertResponse{
			OK:    false,
			Error: &ErrorInfo{Kind: "bad_request", Reason: "invalid request body"},
		})
		return
	}

	sess, err := s.Machine.AssertField(r.Context(), userID, domain.FieldKey(body.FieldKey), body.RawValue)
	if err != nil {
		status, info := classify(err)
		s.metrics.ObserveAssert(body.FieldKey, info.Kind)
		s.logger.Warn("AssertField failed",
			"user_id", userID,
			"field_key", body.FieldKey,
			"kind", info.Kind,
			"err", err,
		)

		// Attach the current snapshot even on failure. A read error here is
		// tolerable: the error field already tells the caller what happened.
		current, readErr := s.Machine.GetSession(r.Context(), userID)
		if readErr != nil {
			current = nil
		}
		writeJSON(w, status, AssertResponse{OK: false, Session: current, Error: info})
		return
	}

	s.metrics.ObserveAssert(body.FieldKey, "ok")
	writeJSON(w, http.StatusOK, AssertResponse{
		OK:      true,
		Session: sess,
		Message: confirmMessage(domain.FieldKey(body.FieldKey), sess),
	})
}

// GetSession handles GET /profiles/{userID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sess, err := s.Machine.GetSession(r.Context(), userID)
	if err != nil {
		status, info := classify(err)
		s.logger.Error("GetSession failed", "user_id", userID, "err", err)
		writeJSON(w, status, AssertResponse{OK: false, Error: info})
		return
	}

	s.metrics.SessionsRead.Inc()
	writeJSON(w, http.StatusOK, AssertResponse{OK: true, Session: sess})
}

// StepInfo describes one onboarding step for prompting UIs.
type StepInfo struct {
	FieldKey string   `json:"field_key"`
	Options  []string `json:"options,omitempty"`
}

// ListSteps handles GET /steps.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	steps := make([]StepInfo, 0, domain.NumSteps)
	for _, key := range domain.Steps() {
		steps = append(steps, StepInfo{
			FieldKey: string(key),
			Options:  policy.Options(key),
		})
	}
	writeJSON(w, http.StatusOK, steps)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "onboard-http",
		"version": strings.TrimSpace(Version),
	})
}

// SubscribeEvents handles the GET /events request (SSE).
// Each message is a complete session snapshot, never a delta, so a client
// that reconnects mid-flow resynchronizes from the first message it sees.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribing to session updates", "user_id", userID)

	ch, cancel := s.Streams.Subscribe(userID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	// Send the current snapshot immediately so a reconnecting client does not
	// wait for the next mutation.
	if sess, err := s.Machine.GetSession(r.Context(), userID); err == nil {
		if data, err := json.Marshal(sess); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "user_id", userID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// classify maps a machine error to an HTTP status and structured error info.
func classify(err error) (int, *ErrorInfo) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, &ErrorInfo{
			Kind:     "validation_error",
			FieldKey: string(ve.Key),
			Reason:   ve.Reason,
		}
	}

	if errors.Is(err, domain.ErrUnknownField) {
		return http.StatusBadRequest, &ErrorInfo{
			Kind:   "unknown_field",
			Reason: err.Error(),
		}
	}

	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return http.StatusServiceUnavailable, &ErrorInfo{
			Kind:   "persistence_error",
			Reason: "profile store unavailable; retry the same assertion",
		}
	}

	return http.StatusInternalServerError, &ErrorInfo{
		Kind:   "internal",
		Reason: err.Error(),
	}
}

// confirmMessage builds the human-readable acknowledgment for a confirmed
// field, or the profile recap once the flow completes.
func confirmMessage(key domain.FieldKey, sess *domain.Session) string {
	if sess.Completed {
		return sess.Summary
	}
	f, ok := sess.Fields[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("Got it: %s set to %s. Next up: %s.", key, f.NormalizedValue, sess.CurrentStep)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
