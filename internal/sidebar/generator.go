package sidebar

import (
	"context"
	"fmt"
	"sort"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/dojobyexample/docnav/internal/navigation"
)

// RootPolicy selects the sidebar bound to "/".
type RootPolicy string

const (
	// RootUnmodified binds "/" to the tree as authored.
	RootUnmodified RootPolicy = "unmodified"
	// RootHomeFocused binds "/" to the tree focused on the home label.
	RootHomeFocused RootPolicy = "home"
)

// ParseRootPolicy parses a root policy name. The empty string selects RootUnmodified.
func ParseRootPolicy(s string) (RootPolicy, error) {
	switch RootPolicy(s) {
	case "", RootUnmodified:
		return RootUnmodified, nil
	case RootHomeFocused:
		return RootHomeFocused, nil
	default:
		return "", fmt.Errorf("unknown root policy %q (supported: %s, %s)", s, RootUnmodified, RootHomeFocused)
	}
}

// Options controls sidebar generation for a whole site.
type Options struct {
	HomeLabel   string
	CloseOthers bool
	Root        RootPolicy
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HomeLabel:   DefaultHomeLabel,
		CloseOthers: true,
		Root:        RootUnmodified,
	}
}

// Config maps a route path such as "/guides" to the sidebar shown on it.
type Config map[string]navigation.Tree

// Keys returns the route paths in sorted order; "/" sorts first.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Plan is the list of routes a generation run will bind, with the problems
// found while resolving them.
type Plan struct {
	Routes     []Route
	Collisions []*docerrors.RouteCollisionError
	// Skipped holds routes whose key is empty. Binding them would replace "/".
	Skipped []Route
}

// NewPlan resolves the routes of tree.
func NewPlan(tree navigation.Tree, homeLabel string) *Plan {
	p := &Plan{}
	for _, r := range ExtractTopLevelRoutes(tree, homeLabel) {
		if r.Key == "" {
			p.Skipped = append(p.Skipped, r)
			continue
		}
		p.Routes = append(p.Routes, r)
	}
	p.Collisions = DetectCollisions(p.Routes)
	return p
}

// Generator builds sidebar configs.
type Generator struct {
	opts   Options
	logger logging.Logger
}

// NewGenerator creates a generator. A nil logger discards output.
func NewGenerator(opts Options, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Root == "" {
		opts.Root = RootUnmodified
	}
	return &Generator{
		opts:   opts,
		logger: logger.WithComponent("sidebar"),
	}
}

// Options returns the generator options.
func (g *Generator) Options() Options {
	return g.opts
}

// Generate validates tree and returns the full route mapping. Either the
// whole mapping is returned or an error; never a partial mapping.
func (g *Generator) Generate(ctx context.Context, tree navigation.Tree) (Config, error) {
	if err := navigation.Validate(tree); err != nil {
		return nil, docerrors.WrapValidation(err, docerrors.ErrCodeInvalidNode, "navigation tree is invalid")
	}

	cfg := make(Config)
	switch g.opts.Root {
	case RootHomeFocused:
		cfg["/"] = Focus(tree, g.opts.HomeLabel, g.opts.CloseOthers)
	case RootUnmodified:
		cfg["/"] = tree.Clone()
	default:
		return nil, docerrors.NewConfigError(docerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown root policy %q", g.opts.Root))
	}

	plan := NewPlan(tree, g.opts.HomeLabel)
	for _, r := range plan.Skipped {
		g.logger.Warn(ctx, nil, "Section has no route key, skipping", "section", r.Label)
	}
	for _, c := range plan.Collisions {
		g.logger.Warn(ctx, c, "Route collision, later section wins", "route", "/"+c.Key)
	}

	for _, r := range plan.Routes {
		cfg[r.Path()] = Focus(tree, r.Label, g.opts.CloseOthers)
		g.logger.Debug(ctx, "Bound route", "route", r.Path(), "section", r.Label)
	}

	g.logger.Info(ctx, "Sidebar generated", "routes", len(cfg), "close_others", g.opts.CloseOthers)
	return cfg, nil
}

// Generate builds the mapping with the given options and no logging.
func Generate(tree navigation.Tree, opts Options) (Config, error) {
	return NewGenerator(opts, nil).Generate(context.Background(), tree)
}
