package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/kvstore"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// ShutdownTimeout bounds graceful shutdown after the serve context is cancelled.
const ShutdownTimeout = 10 * time.Second

// Server is the stage list REST backend.
type Server struct {
	cfg     shared.ServerConfig
	store   kvstore.Store
	tokens  *TokenIssuer
	users   *UserStore
	metrics *Metrics
	logger  *log.Logger
	router  *ChiRouter

	// serializes check-then-set on account creation
	signupMu sync.Mutex
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRegistry registers request metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.metrics = NewMetrics(reg) }
}

// New builds a Server over store and registers every route.
func New(cfg shared.ServerConfig, store kvstore.Store, opts ...Option) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: server.jwt_secret is required", shared.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: server requires a key-value store", shared.ErrInvalidConfig)
	}

	s := &Server{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.NewRegistry())
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s.tokens = NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL)
	s.users = NewUserStore(store)
	s.router = NewChiRouter()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(
		Recover(s.logger),
		RequestLogger(s.logger),
		s.metrics.Middleware,
		CORS(s.cfg.AllowedOrigins),
		BodyLimit(s.cfg.MaxBodyBytes),
	)

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(s.handleHealth))
	r.Handle(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Handle(http.MethodPost, "/signup", http.HandlerFunc(s.handleSignup))
	r.Handle(http.MethodPost, "/auth/token", http.HandlerFunc(s.handleToken))

	authed := r.With(RequireAuth(s.tokens))
	authed.Handle(http.MethodGet, "/lists", http.HandlerFunc(s.handleListLists))
	authed.Handle(http.MethodPost, "/lists", http.HandlerFunc(s.handleCreateList))
	authed.Handle(http.MethodPut, "/lists/{id}", http.HandlerFunc(s.handleUpdateList))
	authed.Handle(http.MethodDelete, "/lists/{id}", http.HandlerFunc(s.handleDeleteList))
	authed.Handle(http.MethodGet, "/settings", http.HandlerFunc(s.handleGetSettings))
	authed.Handle(http.MethodPut, "/settings", http.HandlerFunc(s.handlePutSettings))
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Tokens exposes the issuer, mainly for tests that need a signed token.
func (s *Server) Tokens() *TokenIssuer { return s.tokens }

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("backend listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
