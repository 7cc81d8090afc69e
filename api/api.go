package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/stb-lab/websettings/session"
)

// defaultPollTimeout bounds how long a poll is held open when the caller does
// not configure one. It must stay below the HTTP server's write timeout.
const defaultPollTimeout = 55 * time.Second

// API holds the device-facing REST handlers: session registration, session
// teardown and the revision long-poll.
type API struct {
	engine      *session.Engine
	logger      *slog.Logger
	pollTimeout time.Duration
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithPollTimeout bounds how long a device poll is held open before the
// server answers 204 No Content.
func WithPollTimeout(d time.Duration) Option {
	return func(a *API) {
		a.pollTimeout = d
	}
}

// New creates a new API instance around the given engine.
func New(engine *session.Engine, opts ...Option) *API {
	a := &API{
		engine:      engine,
		pollTimeout: defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all device routes mounted. It is meant to
// be mounted under /stb.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/stb/openapi.yaml",
		Path:    "stb/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/stb/openapi.yaml",
		Path:    "stb/redoc",
	}, nil))

	r.Post("/new-session", a.NewSession)
	r.Get("/del-session", a.EndSession)
	r.Get("/poll", a.Poll)

	return r
}
