package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/config"
	"github.com/dojobyexample/docnav/internal/navigation"
	"github.com/dojobyexample/docnav/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testNavigation = `
- text: Introduction
  link: /
- text: Getting Started
  items:
    - text: Quickstart
      link: /getting-started/quickstart
- text: Guides
  items:
    - text: React & Vite
      link: /guides/react
    - text: Unsafe
      link: javascript:alert(1)
`

type testEnv struct {
	cfg      *config.Config
	pipeline *build.Pipeline
	server   *PreviewServer
	http     *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutils.CreateTestConfig(t, testNavigation)

	pipeline := build.NewPipeline(cfg, nil)
	_, err := pipeline.Build(context.Background())
	require.NoError(t, err)

	s := New(pipeline, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Hub().Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})

	return &testEnv{cfg: cfg, pipeline: pipeline, server: s, http: ts}
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.http.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func parseHTML(t *testing.T, r io.Reader) *html.Node {
	t.Helper()
	doc, err := html.Parse(r)
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func TestIndexListsRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	doc := parseHTML(t, resp.Body)
	var hrefs []string
	for _, a := range findAll(doc, "a") {
		href, _ := attr(a, "href")
		hrefs = append(hrefs, href)
	}
	assert.Equal(t, []string{"/route/", "/route/getting-started", "/route/guides", "/sidebar.json", "/pages.json"}, hrefs)

	banner := findAll(doc, "pre")
	require.Len(t, banner, 1)
	_, hidden := attr(banner[0], "hidden")
	assert.True(t, hidden)
}

func TestRoutePageRendersFocusedSidebar(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/route/guides", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parseHTML(t, resp.Body)

	title := findAll(doc, "h1")
	require.Len(t, title, 1)
	assert.Equal(t, "Guides (/guides)", text(title[0]))

	sections := findAll(doc, "details")
	require.Len(t, sections, 2)

	state := map[string]string{}
	open := map[string]bool{}
	for _, d := range sections {
		label := text(findAll(d, "summary")[0])
		state[label], _ = attr(d, "data-collapsed")
		_, open[label] = attr(d, "open")
	}
	assert.Equal(t, map[string]string{"Getting Started": "true", "Guides": "false"}, state)
	assert.Equal(t, map[string]bool{"Getting Started": false, "Guides": true}, open)

	links := map[string]string{}
	for _, a := range findAll(doc, "a") {
		href, _ := attr(a, "href")
		links[text(a)] = href
	}
	assert.Equal(t, "/guides/react", links["React & Vite"])
	assert.NotContains(t, links["Unsafe"], "javascript:")
}

func TestRootRoute(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/route", "/route/"} {
		resp := env.get(t, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		doc := parseHTML(t, resp.Body)
		for _, d := range findAll(doc, "details") {
			state, _ := attr(d, "data-collapsed")
			assert.Equal(t, "open", state, "root is unmodified by default")
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/route/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSidebarJSON(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/sidebar.json", http.Header{"Origin": {"http://localhost:5173"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	var cfg map[string]navigation.Tree
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	assert.Len(t, cfg, 3)
	assert.Contains(t, cfg, "/guides")

	foreign := env.get(t, "/sidebar.json", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, foreign.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Routes)
	assert.Equal(t, int64(1), health.Builds.SuccessfulBuilds)
	assert.InDelta(t, 100.0, health.SuccessRate, 0.001)
	assert.Empty(t, health.LastError)
}

func TestFailedRebuildKeepsLastSidebar(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, os.WriteFile(env.cfg.Navigation.File, []byte("- link: /no-text\n"), 0o644))
	_, err := env.pipeline.Build(context.Background())
	require.Error(t, err)

	resp := env.get(t, "/route/guides", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parseHTML(t, resp.Body)
	banner := findAll(doc, "pre")
	require.Len(t, banner, 1)
	assert.Contains(t, text(banner[0]), "text")

	health := env.get(t, "/health", nil)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(health.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.NotEmpty(t, body.LastError)
}

func dialWS(t *testing.T, env *testEnv, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	return websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": {origin}},
	})
}

func TestWebSocketReceivesReload(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := dialWS(t, env, env.http.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return env.server.Hub().ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(env.cfg.Navigation.File, []byte("- text: Only\n  link: /only\n"), 0o644))
	_, err = env.pipeline.Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageReload, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestWebSocketReceivesBuildErrors(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := dialWS(t, env, "http://localhost:5173")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return env.server.Hub().ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(env.cfg.Navigation.File, []byte("[{"), 0o644))
	_, err = env.pipeline.Build(context.Background())
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.NotEmpty(t, msg.Message)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)

	for _, origin := range []string{"https://evil.example", "file://localhost", ""} {
		_, resp, err := dialWS(t, env, origin)
		require.Error(t, err, origin)
		if resp != nil {
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, origin)
		}
	}
}

func TestAllowedOrigin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5174", true},
		{"http://127.0.0.1:5173", true},
		{"https://localhost:5173", true},
		{"http://localhost:3000", false},
		{"http://example.com:5174", false},
		{"ws://localhost:5174", false},
		{"", false},
		{"::not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, env.server.allowedOrigin(tt.origin))
		})
	}
}
