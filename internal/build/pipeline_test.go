package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/dojobyexample/docnav/internal/output"
	"github.com/dojobyexample/docnav/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNavigation = `
- text: Introduction
  link: /
- text: Getting Started
  items:
    - text: Quickstart
      link: /getting-started/quickstart
- text: Guides
  collapsed: false
  items:
    - text: React
      link: /guides/react
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testutils.CreateTestConfig(t, testNavigation)
}

func TestPipelineBuild(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	result, err := p.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/getting-started", "/guides"}, result.Config.Keys())
	assert.Len(t, result.Plan.Routes, 2)
	assert.NotEmpty(t, result.Hash)
	assert.Empty(t, result.OutputFile)
	assert.False(t, result.CacheHit)
	assert.Same(t, result, p.Last())

	_, err = os.Stat(cfg.Output.File)
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineEmitWritesOutput(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	result, err := p.Emit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Output.File, result.OutputFile)

	data, err := os.ReadFile(cfg.Output.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export const sidebar: Sidebar = {")
	assert.Contains(t, string(data), `"/getting-started": [`)

	format, err := OutputFormat(cfg)
	require.NoError(t, err)
	assert.Equal(t, output.FormatTypeScript, format)
}

func TestPipelineCachesUnchangedSource(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	first, err := p.Build(context.Background())
	require.NoError(t, err)
	second, err := p.Build(context.Background())
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Config.Keys(), second.Config.Keys())

	require.NoError(t, os.WriteFile(cfg.Navigation.File, []byte("- text: Only\n  link: /only\n"), 0o644))
	third, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, []string{"/", "/only"}, third.Config.Keys())

	snapshot := p.Metrics().GetSnapshot()
	assert.Equal(t, int64(3), snapshot.TotalBuilds)
	assert.Equal(t, int64(1), snapshot.CacheHits)
}

func TestPipelineFailureKeepsLastResult(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	good, err := p.Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(cfg.Navigation.File, []byte("- link: /missing-text\n"), 0o644))
	bad, err := p.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, bad.Error)

	var fileErr *loader.FileError
	assert.ErrorAs(t, err, &fileErr)
	assert.Same(t, good, p.Last())

	snapshot := p.Metrics().GetSnapshot()
	assert.Equal(t, int64(1), snapshot.FailedBuilds)
	assert.InDelta(t, 50.0, p.Metrics().SuccessRate(), 0.001)
}

func TestPipelineMissingSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Navigation.File = filepath.Join(t.TempDir(), "missing.yml")

	_, err := NewPipeline(cfg, nil).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
}

func TestPipelineCallbacks(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	var mu sync.Mutex
	var results []*Result
	p.AddCallback(func(r *Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})

	_, err := p.Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, context.Canceled)
}

func TestPipelineSetConfigDropsCache(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, nil)

	_, err := p.Build(context.Background())
	require.NoError(t, err)

	updated := *cfg
	updated.Sidebar.Root = "home"
	p.SetConfig(&updated)
	assert.Nil(t, p.Last())
	assert.Same(t, &updated, p.Config())

	result, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
}

func TestMetricsAverages(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.SuccessRate())

	m.RecordBuild(&Result{Duration: 2 * time.Millisecond, Timestamp: time.Now()})
	m.RecordBuild(&Result{Duration: 4 * time.Millisecond, CacheHit: true})

	snapshot := m.GetSnapshot()
	assert.Equal(t, 3*time.Millisecond, snapshot.AverageDuration)
	assert.Equal(t, int64(2), snapshot.SuccessfulBuilds)
	assert.InDelta(t, 100.0, m.SuccessRate(), 0.001)
}

func TestPipelineLogsRecoverableFailuresAsWarnings(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	p := NewPipeline(cfg, logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelInfo, Output: &buf}))

	require.NoError(t, os.WriteFile(cfg.Navigation.File, []byte("- link: /missing-text\n"), 0o644))
	_, err := p.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "keeping the last result")

	buf.Reset()
	require.NoError(t, os.Remove(cfg.Navigation.File))
	_, err = p.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
}
