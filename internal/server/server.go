// Package server implements the docnav live preview. It renders the
// per-route sidebars as HTML, serves the current config as JSON and pushes
// reload messages over a websocket whenever the navigation, the config file
// or a page is edited.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/config"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/dojobyexample/docnav/internal/watcher"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// VocsDevPort is the port the Vocs dev server listens on by default.
const VocsDevPort = 5173

// PreviewServer serves sidebars with live reload
type PreviewServer struct {
	pipeline *build.Pipeline
	hub      *Hub
	logger   logging.Logger

	state      *build.Result
	lastError  error
	stateMutex sync.RWMutex

	router      chi.Router
	httpServer  *http.Server
	configFile  string
	loadConfig  build.ConfigLoader
	serverMutex sync.RWMutex
	startedAt   time.Time
}

// New creates a preview server around pipeline. Every pipeline result is
// picked up and announced to connected browsers.
func New(pipeline *build.Pipeline, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("server")

	s := &PreviewServer{
		pipeline:  pipeline,
		hub:       NewHub(logger),
		logger:    logger,
		startedAt: time.Now(),
	}
	if last := pipeline.Last(); last != nil {
		s.state = last
	}
	pipeline.AddCallback(s.handleBuildResult)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *PreviewServer) Handler() http.Handler {
	return s.router
}

// Hub returns the live reload hub.
func (s *PreviewServer) Hub() *Hub {
	return s.hub
}

func (s *PreviewServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/route", s.handleRoute)
	r.Get("/route/*", s.handleRoute)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowOriginFunc: func(_ *http.Request, origin string) bool { return s.allowedOrigin(origin) },
			AllowedMethods:  []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:  []string{"Accept", "Content-Type"},
			MaxAge:          300,
		}))
		r.Get("/sidebar.json", s.handleSidebarJSON)
		r.Options("/sidebar.json", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/pages.json", s.handlePagesJSON)
	})

	return r
}

func (s *PreviewServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

// handleBuildResult swaps in a successful result or records the failure,
// then tells the browsers.
func (s *PreviewServer) handleBuildResult(result *build.Result) {
	s.stateMutex.Lock()
	if result.Error == nil {
		s.state = result
		s.lastError = nil
	} else {
		s.lastError = result.Error
	}
	s.stateMutex.Unlock()

	if result.Error != nil {
		s.hub.Broadcast(Message{Type: MessageError, Message: result.Error.Error()})
		return
	}
	if !result.CacheHit {
		s.hub.Broadcast(Message{Type: MessageReload})
	}
}

// snapshot returns the current result and the error of the latest failed
// rebuild, if it came after that result.
func (s *PreviewServer) snapshot() (*build.Result, error) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.state, s.lastError
}

// Start builds the sidebar, watches the inputs and serves HTTP until ctx
// is done.
func (s *PreviewServer) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *PreviewServer) Serve(ctx context.Context, ln net.Listener) error {
	if _, err := s.pipeline.Build(ctx); err != nil {
		s.logger.Warn(ctx, err, "Initial build failed, serving the error until the next change")
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	fw, err := s.setupFileWatcher(hubCtx)
	if err != nil {
		s.logger.Warn(ctx, err, "File watching disabled")
	} else {
		defer fw.Stop()
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return hubCtx },
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Preview server listening", "url", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stopHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully shuts down the HTTP server.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	s.serverMutex.RLock()
	srv := s.httpServer
	s.serverMutex.RUnlock()
	if srv == nil {
		return nil
	}
	s.logger.Info(ctx, "Shutting down preview server")
	return srv.Shutdown(ctx)
}

// WatchConfig makes the server reload its configuration through load
// whenever path changes.
func (s *PreviewServer) WatchConfig(path string, load build.ConfigLoader) {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	s.configFile = path
	s.loadConfig = load
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) (*watcher.FileWatcher, error) {
	s.serverMutex.RLock()
	opts := build.WatchOptions{
		ConfigFile: s.configFile,
		LoadConfig: s.loadConfig,
		Pages:      true,
		OnChange:   s.rebuild,
	}
	s.serverMutex.RUnlock()
	return s.pipeline.Watch(ctx, opts)
}

// rebuild runs the pipeline after a change. Page edits leave the sidebar
// as it is, so browsers are told to reload directly.
func (s *PreviewServer) rebuild(ctx context.Context, change build.Change) error {
	s.logger.Info(ctx, "Inputs changed, rebuilding",
		"config", change.Config,
		"navigation", change.Navigation,
		"pages", change.Pages)
	// Failures reach the browsers through handleBuildResult.
	result, err := s.pipeline.Build(ctx)
	if err == nil && change.Pages && result.CacheHit {
		s.hub.Broadcast(Message{Type: MessageReload})
	}
	return nil
}

// allowedOrigin accepts the preview server itself and the Vocs dev server on
// loopback hosts.
func (s *PreviewServer) allowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	host, port := u.Hostname(), u.Port()
	cfg := s.pipeline.Config()
	allowedPorts := []string{strconv.Itoa(cfg.Server.Port), strconv.Itoa(VocsDevPort)}

	switch host {
	case cfg.Server.Host, "localhost", "127.0.0.1", "::1":
	default:
		return false
	}
	for _, p := range allowedPorts {
		if port == p {
			return true
		}
	}
	return false
}

// checkOrigin validates the websocket request origin. Same-host requests are
// accepted as well, so a preview opened through any address can connect.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	return s.allowedOrigin(origin)
}

// Config returns the configuration the server was built from.
func (s *PreviewServer) Config() *config.Config {
	return s.pipeline.Config()
}

func (s *PreviewServer) uptime() time.Duration {
	return time.Since(s.startedAt)
}
