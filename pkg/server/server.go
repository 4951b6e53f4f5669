// Package server serves a mirror directory over HTTP so pip can install
// from it with --index-url http://host:port/simple/.
//
// Routes:
//
//	GET /healthz                 liveness probe
//	GET /simple/                 project list
//	GET /simple/{project}/       project page; non-normalized names redirect
//	GET /{file}                  a distribution file from the mirror root
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/simpleindex"
)

// Server serves one mirror directory.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New returns a Server listening on addr for the mirror at dir.
func New(addr, dir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(dir, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("serving mirror", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for active requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRouter returns the handler for the mirror at dir.
func NewRouter(dir string, logger *log.Logger) http.Handler {
	h := &handler{dir: dir}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	r.Get("/simple", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/simple/", http.StatusMovedPermanently)
	})
	r.Get("/simple/", h.root)
	r.Get("/simple/{project}", h.redirectProject)
	r.Get("/simple/{project}/", h.project)
	r.Get("/{file}", h.file)
	return r
}

type handler struct {
	dir string
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	h.serveIndex(w, r, filepath.Join(h.dir, simpleindex.Dirname, "index.html"))
}

func (h *handler) redirectProject(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/simple/"+dist.NormalizeName(chi.URLParam(r, "project"))+"/", http.StatusMovedPermanently)
}

func (h *handler) project(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "project")
	key := dist.NormalizeName(name)
	if key != name {
		http.Redirect(w, r, "/simple/"+key+"/", http.StatusMovedPermanently)
		return
	}
	if err := errs.ValidateProjectName(key); err != nil {
		http.Error(w, errs.UserMessage(err), http.StatusBadRequest)
		return
	}
	h.serveIndex(w, r, filepath.Join(h.dir, simpleindex.Dirname, key, "index.html"))
}

func (h *handler) serveIndex(w http.ResponseWriter, r *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (h *handler) file(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if err := errs.ValidateFilename(name); err != nil {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"id", middleware.GetReqID(r.Context()))
		})
	}
}
