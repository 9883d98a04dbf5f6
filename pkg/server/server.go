package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/queue"
	"github.com/docyard/docyard/pkg/store"
)

// Options configures a Server.
type Options struct {
	Store  *store.Store
	Queue  queue.Queue // Optional; /api/queue is mounted only when set
	Logger func(string, ...any)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Server is the read-only JSON API over the metadata store. It implements
// http.Handler.
type Server struct {
	opts Options
	mux  *chi.Mux
}

// New creates a Server and mounts its routes.
func New(opts Options) *Server {
	s := &Server{opts: opts.WithDefaults()}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/crates/{name}", s.handleCrate)
		r.Get("/crates/{name}/releases/{version}", s.handleRelease)
		if s.opts.Queue != nil {
			r.Get("/queue", s.handleQueue)
		}
	})
	s.mux = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.opts.Logger("api listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// crateResponse is the /api/crates/{name} payload.
type crateResponse struct {
	Name     string           `json:"name"`
	Versions []string         `json:"versions"`
	Releases []releaseSummary `json:"releases"`
}

type releaseSummary struct {
	Version       string     `json:"version"`
	ReleaseTime   *time.Time `json:"release_time,omitempty"`
	BuildStatus   int        `json:"build_status"`
	RustdocStatus int        `json:"rustdoc_status"`
	Yanked        *bool      `json:"yanked,omitempty"`
	Downloads     *int       `json:"downloads,omitempty"`
}

// releaseResponse is the full release row.
type releaseResponse struct {
	Version         string      `json:"version"`
	ReleaseTime     *time.Time  `json:"release_time,omitempty"`
	Dependencies    [][2]string `json:"dependencies"`
	Yanked          *bool       `json:"yanked,omitempty"`
	BuildStatus     int         `json:"build_status"`
	RustdocStatus   int         `json:"rustdoc_status"`
	TestStatus      int         `json:"test_status"`
	License         *string     `json:"license,omitempty"`
	Repository      *string     `json:"repository,omitempty"`
	Homepage        *string     `json:"homepage,omitempty"`
	Description     *string     `json:"description,omitempty"`
	DescriptionLong *string     `json:"description_long,omitempty"`
	Readme          *string     `json:"readme,omitempty"`
	Authors         []string    `json:"authors"`
	Keywords        []string    `json:"keywords"`
	HaveExamples    bool        `json:"have_examples"`
	Downloads       *int        `json:"downloads,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Store.Ping(r.Context()); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCrate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	crate, err := s.opts.Store.GetCrate(r.Context(), name)
	if err == store.ErrNotFound {
		s.writeError(w, http.StatusNotFound, "crate not found")
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	summaries, err := s.opts.Store.ListReleases(r.Context(), crate.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	resp := crateResponse{
		Name:     crate.Name,
		Versions: crate.Versions,
		Releases: make([]releaseSummary, 0, len(summaries)),
	}
	for _, rel := range summaries {
		resp.Releases = append(resp.Releases, releaseSummary{
			Version:       rel.Version,
			ReleaseTime:   rel.ReleaseTime,
			BuildStatus:   rel.BuildStatus,
			RustdocStatus: rel.RustdocStatus,
			Yanked:        rel.Yanked,
			Downloads:     rel.Downloads,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")
	rel, err := s.opts.Store.GetRelease(r.Context(), name, version)
	if err == store.ErrNotFound {
		s.writeError(w, http.StatusNotFound, "release not found")
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, releaseResponse{
		Version:         rel.Version,
		ReleaseTime:     rel.ReleaseTime,
		Dependencies:    rel.Dependencies,
		Yanked:          rel.Yanked,
		BuildStatus:     rel.BuildStatus,
		RustdocStatus:   rel.RustdocStatus,
		TestStatus:      rel.TestStatus,
		License:         rel.License,
		Repository:      rel.Repository,
		Homepage:        rel.Homepage,
		Description:     rel.Description,
		DescriptionLong: rel.DescriptionLong,
		Readme:          rel.Readme,
		Authors:         rel.Authors,
		Keywords:        rel.Keywords,
		HaveExamples:    rel.HaveExamples,
		Downloads:       rel.Downloads,
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	n, err := s.opts.Queue.Len(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"length": n})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.opts.Logger("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps an unexpected failure to a 500 carrying the
// machine-readable error code.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	s.opts.Logger("api error: %v", err)
	code := derrors.GetCode(err)
	if code == "" {
		code = derrors.ErrCodeInternal
	}
	s.writeError(w, http.StatusInternalServerError, string(code))
}
