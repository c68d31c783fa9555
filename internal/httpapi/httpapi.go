// Package httpapi exposes the command pipeline, roster management, record
// listings, and report export over HTTP.
//
// All responses are JSON except /api/export, which streams an Excel
// workbook. Command endpoints return the pipeline's Outcome verbatim: HTTP
// 200 for accepted commands, 422 for rejected ones, 500 for storage
// failures — the message is always displayable as-is.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/K-ALOHA/voxregister/internal/command"
	"github.com/K-ALOHA/voxregister/internal/observe"
	"github.com/K-ALOHA/voxregister/internal/store"
)

// maxUploadBytes bounds audio and CSV uploads (32 MiB).
const maxUploadBytes = 32 << 20

// Server holds the handler dependencies. Construct with New and mount with
// [Server.Register].
type Server struct {
	pipeline *command.Pipeline
	store    store.Store
	metrics  *observe.Metrics
	log      *slog.Logger

	// defaultPrefix is used when a command request carries no usn_prefix.
	defaultPrefix string
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithDefaultUSNPrefix sets the prefix applied when a request does not carry
// its own.
func WithDefaultUSNPrefix(prefix string) Option {
	return func(s *Server) { s.defaultPrefix = prefix }
}

// WithMetrics replaces the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a Server over the given pipeline and store.
func New(p *command.Pipeline, st store.Store, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		store:    st,
		metrics:  observe.DefaultMetrics(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/commands/attendance", s.handleAttendanceCommand)
	mux.HandleFunc("POST /api/commands/marks", s.handleMarksCommand)
	mux.HandleFunc("POST /api/roster/import", s.handleRosterImport)
	mux.HandleFunc("GET /api/roster", s.handleRosterList)
	mux.HandleFunc("GET /api/attendance", s.handleAttendanceList)
	mux.HandleFunc("GET /api/marks", s.handleMarksList)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/export", s.handleExport)
}

// errorBody is the JSON shape for request-level errors (malformed input, bad
// parameters) as opposed to command outcomes.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes a request-level error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeOutcome maps a command outcome to an HTTP status and writes it.
func (s *Server) writeOutcome(w http.ResponseWriter, out command.Outcome) {
	status := http.StatusOK
	switch {
	case out.Success:
	case out.Kind == command.FailureStore:
		status = http.StatusInternalServerError
	default:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}
