package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/morezero/tpp-host/pkg/manifest"
)

// connChecker is the slice of *comms.Conn the health endpoint needs.
type connChecker interface {
	IsConnected() bool
	FlushTimeout(timeout time.Duration) error
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status        string `json:"status"`
	Comms         bool   `json:"comms"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Timestamp     string `json:"timestamp"`
}

// ChannelInfo is the /channel response body.
type ChannelInfo struct {
	Name        string                             `json:"name"`
	Version     string                             `json:"version"`
	Description string                             `json:"description,omitempty"`
	Subject     string                             `json:"subject"`
	Handled     []string                           `json:"handled"`
	Unhandled   []string                           `json:"unhandled,omitempty"`
	Methods     map[string]manifest.MethodMetadata `json:"methods"`
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/channel", s.handleChannel)

	return r
}

// health reports healthy only when the connection is up and a round trip to the server succeeds.
func (s *Server) health() *HealthOutput {
	ok := s.conn != nil && s.conn.IsConnected()
	if ok {
		if err := s.conn.FlushTimeout(s.cfg.HealthCheckTimeout); err != nil {
			slog.Warn(fmt.Sprintf("%s - health flush failed: %v", logPrefix, err))
			ok = false
		}
	}
	status := "healthy"
	if !ok {
		status = "unhealthy"
	}
	return &HealthOutput{
		Status:        status,
		Comms:         ok,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health()
	code := http.StatusOK
	if h.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	m := s.channel.manifest
	handled := s.channel.dispatcher.Names()
	writeJSON(w, http.StatusOK, &ChannelInfo{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Subject:     s.channel.subject,
		Handled:     handled,
		Unhandled:   m.Unhandled(handled),
		Methods:     m.Methods,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - response encode: %v", logPrefix, err))
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug(fmt.Sprintf("%s - %s %s %d %dms request_id=%s", logPrefix,
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Milliseconds(), middleware.GetReqID(r.Context())))
	})
}
