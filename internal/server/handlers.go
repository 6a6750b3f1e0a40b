package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/coder/websocket"
	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/pages"
	"github.com/dojobyexample/docnav/internal/version"
	"github.com/go-chi/chi/v5"
)

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	state, lastErr := s.snapshot()
	view := indexView{Source: s.Config().Navigation.File, Error: errorText(lastErr)}
	if state != nil {
		view.Routes = routeLinks(state.Config, state.Plan)
	}
	templ.Handler(indexPage(view)).ServeHTTP(w, r)
}

func (s *PreviewServer) handleRoute(w http.ResponseWriter, r *http.Request) {
	key := "/" + strings.Trim(chi.URLParam(r, "*"), "/")

	state, lastErr := s.snapshot()
	if state == nil {
		http.Error(w, "sidebar not built yet: "+errorText(lastErr), http.StatusServiceUnavailable)
		return
	}

	tree, ok := state.Config[key]
	if !ok {
		http.Error(w, "no sidebar for route "+key, http.StatusNotFound)
		return
	}

	view := routeView{Path: key, Tree: tree, Error: errorText(lastErr)}
	if state.Plan != nil {
		for _, route := range state.Plan.Routes {
			if route.Path() == key {
				view.Label = route.Label
			}
		}
	}
	templ.Handler(routePage(view)).ServeHTTP(w, r)
}

func (s *PreviewServer) handleSidebarJSON(w http.ResponseWriter, r *http.Request) {
	state, _ := s.snapshot()
	if state == nil {
		http.Error(w, "sidebar not built yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state.Config); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode sidebar")
	}
}

// handlePagesJSON cross-checks the current navigation against the pages
// directory.
func (s *PreviewServer) handlePagesJSON(w http.ResponseWriter, r *http.Request) {
	state, _ := s.snapshot()
	if state == nil {
		http.Error(w, "sidebar not built yet", http.StatusServiceUnavailable)
		return
	}
	cfg := s.Config()
	report, err := pages.NewChecker(cfg.Pages.Dir, cfg.Pages.Extensions, s.logger).Check(r.Context(), state.Tree)
	if err != nil {
		s.logger.Error(r.Context(), err, "Page check failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode page report")
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Uptime    string        `json:"uptime"`
	Routes    int           `json:"routes"`
	Clients   int           `json:"clients"`
	LastBuild time.Time     `json:"last_build,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Builds    build.Metrics `json:"builds"`

	// SuccessRate is the share of successful builds, in percent.
	SuccessRate float64 `json:"success_rate"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	state, lastErr := s.snapshot()

	metrics := s.pipeline.Metrics()
	resp := HealthResponse{
		Status:      "ok",
		Version:     version.GetShortVersion(),
		Uptime:      s.uptime().Round(time.Second).String(),
		Clients:     s.hub.ClientCount(),
		LastError:   errorText(lastErr),
		Builds:      metrics.GetSnapshot(),
		SuccessRate: metrics.SuccessRate(),
	}
	if state != nil {
		resp.Routes = len(state.Config)
		resp.LastBuild = state.Timestamp
	}
	if lastErr != nil || state == nil {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// Origin was checked above.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	s.hub.serve(r.Context(), conn)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
