// Package build runs the docnav pipeline: load the navigation file, derive
// the per-route sidebar config and optionally write it out. Results are
// handed to registered callbacks so the watcher and the preview server can
// react to each rebuild.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/dojobyexample/docnav/internal/navigation"
	"github.com/dojobyexample/docnav/internal/output"
	"github.com/dojobyexample/docnav/internal/sidebar"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Source     string
	Hash       string
	Tree       navigation.Tree
	Config     sidebar.Config
	Plan       *sidebar.Plan
	Warnings   []navigation.Warning
	OutputFile string
	Duration   time.Duration
	CacheHit   bool
	Error      error
	Timestamp  time.Time
}

// Callback receives every result, successful or not.
type Callback func(result *Result)

// Pipeline loads and generates sidebars for one configuration. Runs are
// serialized.
type Pipeline struct {
	cfg       *config.Config
	logger    logging.Logger
	metrics   *Metrics
	callbacks []Callback
	last      *Result
	mutex     sync.Mutex
}

// NewPipeline creates a pipeline. A nil logger discards output.
func NewPipeline(cfg *config.Config, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

// AddCallback registers a result callback.
func (p *Pipeline) AddCallback(callback Callback) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

// SetConfig replaces the configuration and drops the cached result.
func (p *Pipeline) SetConfig(cfg *config.Config) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cfg = cfg
	p.last = nil
}

// Config returns the current configuration.
func (p *Pipeline) Config() *config.Config {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cfg
}

// Last returns the most recent successful result, or nil.
func (p *Pipeline) Last() *Result {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.last
}

// Metrics returns the pipeline metrics.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Build loads and generates without writing anything.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	return p.run(ctx, false)
}

// Emit builds and writes the sidebar to the configured output file. The file
// is left untouched when its content would not change.
func (p *Pipeline) Emit(ctx context.Context) (*Result, error) {
	return p.run(ctx, true)
}

func (p *Pipeline) run(ctx context.Context, write bool) (*Result, error) {
	p.mutex.Lock()
	result := p.execute(ctx, write)
	if result.Error == nil {
		p.last = result
	}
	callbacks := append([]Callback(nil), p.callbacks...)
	p.mutex.Unlock()

	p.metrics.RecordBuild(result)
	for _, cb := range callbacks {
		cb(result)
	}
	return result, result.Error
}

func (p *Pipeline) execute(ctx context.Context, write bool) *Result {
	start := time.Now()
	cfg := p.cfg
	result := &Result{Source: cfg.Navigation.File, Timestamp: start}
	finish := func(err error) *Result {
		result.Error = err
		result.Duration = time.Since(start)
		switch {
		case err != nil && docerrors.IsRecoverable(err):
			p.logger.Warn(ctx, err, "Build failed, keeping the last result", "source", result.Source)
		case err != nil:
			p.logger.Error(ctx, err, "Build failed", "source", result.Source, "duration", result.Duration)
		default:
			p.logger.Info(ctx, "Build completed",
				"source", result.Source,
				"routes", len(result.Config),
				"cached", result.CacheHit,
				"duration", result.Duration)
		}
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	data, err := loader.ReadFile(cfg.Navigation.File)
	if err != nil {
		return finish(err)
	}
	result.Hash = contentHash(data)

	if last := p.last; last != nil && last.Hash == result.Hash {
		result.Tree = last.Tree
		result.Config = last.Config
		result.Plan = last.Plan
		result.Warnings = last.Warnings
		result.CacheHit = true
		return finish(p.write(result, cfg, write))
	}

	doc, err := loader.Decode(cfg.Navigation.File, data)
	if err != nil {
		return finish(err)
	}
	result.Tree = doc.Tree
	result.Warnings = doc.Warnings
	for _, w := range doc.Warnings {
		p.logger.Warn(ctx, nil, "Navigation warning", "node", w.Path, "detail", w.Message)
	}

	opts, err := cfg.SidebarOptions()
	if err != nil {
		return finish(docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "invalid sidebar options"))
	}
	result.Plan = sidebar.NewPlan(doc.Tree, opts.HomeLabel)

	sidebarConfig, err := sidebar.NewGenerator(opts, p.logger).Generate(ctx, doc.Tree)
	if err != nil {
		return finish(err)
	}
	result.Config = sidebarConfig

	return finish(p.write(result, cfg, write))
}

func (p *Pipeline) write(result *Result, cfg *config.Config, write bool) error {
	if !write {
		return nil
	}
	if err := WriteOutput(cfg, result.Config); err != nil {
		return err
	}
	result.OutputFile = cfg.Output.File
	return nil
}

// OutputFormat resolves the configured output format, inferring it from the
// output file extension when unset.
func OutputFormat(cfg *config.Config) (output.Format, error) {
	if cfg.Output.Format == "" {
		return output.FormatFromPath(cfg.Output.File), nil
	}
	return output.ParseFormat(cfg.Output.Format)
}

// OutputOptions returns the output options for cfg.
func OutputOptions(cfg *config.Config) output.Options {
	return output.Options{
		ExportName: cfg.Output.ExportName,
		Source:     cfg.Navigation.File,
	}
}

// WriteOutput writes sidebarConfig to the configured output file, or to
// stdout when the file is "-".
func WriteOutput(cfg *config.Config, sidebarConfig sidebar.Config) error {
	format, err := OutputFormat(cfg)
	if err != nil {
		return docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "invalid output format")
	}
	if cfg.Output.File == StdoutFile {
		if err := output.Write(os.Stdout, sidebarConfig, format, OutputOptions(cfg)); err != nil {
			return docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot write sidebar to stdout")
		}
		return nil
	}
	return output.WriteFile(cfg.Output.File, sidebarConfig, format, OutputOptions(cfg))
}

// StdoutFile is the output file name that selects standard output.
const StdoutFile = "-"

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
