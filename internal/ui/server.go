package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"metaextractor/internal/exporter"
	"metaextractor/internal/logger"
	"metaextractor/internal/model"
)

// Server provides HTTP endpoints for preview and export over one snapshot.
// The results are shared read-only between requests.
type Server struct {
	results []model.ExtractionResult
	config  exporter.Config
	name    string
	log     *slog.Logger
}

// NewServer creates a new UI server. name is used for download file names.
func NewServer(results []model.ExtractionResult, cfg exporter.Config, name string) *Server {
	if name == "" {
		name = "catalog"
	}
	return &Server{
		results: results,
		config:  cfg,
		name:    name,
		log:     logger.Get(),
	}
}

// RegisterRoutes registers HTTP handlers
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handlePreview)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /export/{format}", s.handleExport)
}

// Handler returns the routes on a fresh mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// handlePreview renders the HTML document inline
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.render(w, "html", false)
}

// handleResults serves the JSON rendering for API clients
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.render(w, "json", false)
}

// handleExport generates and downloads the requested format
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.render(w, r.PathValue("format"), true)
}

// render buffers the export so a failure can still be reported with a status code
func (s *Server) render(w http.ResponseWriter, format string, download bool) {
	exp, err := exporter.NewExporter(format, s.config)
	if err != nil {
		http.Error(w, fmt.Sprintf("Exporter error: %v", err), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Write(exp, s.results, &buf); err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		http.Error(w, fmt.Sprintf("Export error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exp.MimeType())
	if download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=\"%s%s\"", s.name, exp.FileExtension()))
	}
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Debug("client went away", "format", format, "error", err)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	summary := model.Summarize(s.results)
	s.log.Info("preview server starting",
		"url", "http://"+addr,
		"sources", len(s.results),
		"success", summary.Success,
		"partial", summary.Partial,
		"failed", summary.Failed)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
