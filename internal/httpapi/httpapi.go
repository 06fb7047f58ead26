// Package httpapi serves the MCP server, metrics, health and stored
// executions over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/deixis/rxlaunch"
	"github.com/deixis/rxlaunch/internal/engine"
	"github.com/deixis/rxlaunch/internal/logging"
	"github.com/deixis/rxlaunch/internal/report"
)

// Server wires the HTTP routes. Only Engine is required.
type Server struct {
	Engine   *engine.Engine
	Store    report.Store        // serves GET /runs/{id} when set
	MCP      *mcp.Server         // serves /mcp when set
	Gatherer prometheus.Gatherer // defaults to the default registry
	Log      *slog.Logger
}

type health struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type apiError struct {
	Error string `json:"error"`
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}", s.handleRun).Methods(http.MethodGet)

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if s.MCP != nil {
		r.PathPrefix("/mcp").Handler(mcp.NewStreamableHTTPHandler(
			func(_ *http.Request) *mcp.Server { return s.MCP },
			nil,
		))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger().Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	id := rxlaunch.Identity()
	writeJSON(w, s.logger(), http.StatusOK, health{
		Status:  s.Engine.Status().String(),
		State:   s.Engine.State().String(),
		Name:    id.Name,
		Version: id.Version,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.Store == nil {
		writeJSON(w, s.logger(), http.StatusNotFound, apiError{Error: "executions are not kept by this server"})
		return
	}

	e, err := s.Store.Load(id)
	switch {
	case errors.Is(err, report.ErrNotFound):
		writeJSON(w, s.logger(), http.StatusNotFound, apiError{Error: err.Error()})
	case err != nil:
		s.logger().Error("loading execution", "run_id", id, "error", err)
		writeJSON(w, s.logger(), http.StatusInternalServerError, apiError{Error: "internal server error"})
	default:
		writeJSON(w, s.logger(), http.StatusOK, e)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logging.Discard()
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error("failed to marshal response", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		log.Error("failed to send response", "error", err)
	}
}
