package build

import (
	"context"
	"os"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/watcher"
)

// ConfigLoader rereads the configuration after its file changed.
type ConfigLoader func() (*config.Config, error)

// Change tells which inputs a batch of file events touched.
type Change struct {
	Config     bool
	Navigation bool
	Pages      bool
}

// WatchOptions selects the inputs followed by Watch.
type WatchOptions struct {
	// ConfigFile is reloaded through LoadConfig when it changes. Leave it
	// empty when no config file is in use.
	ConfigFile string
	LoadConfig ConfigLoader

	// Pages also watches the page files below the configured pages dir.
	Pages bool

	// OnChange runs after a reloaded config was applied. When nil the
	// pipeline is rebuilt.
	OnChange func(ctx context.Context, change Change) error
}

// Watch follows the navigation file, the config file and optionally the
// pages directory until ctx is done. Editing the config swaps it into the
// pipeline; a config naming another navigation file moves the watch there.
// The caller stops the returned watcher.
func (p *Pipeline) Watch(ctx context.Context, opts WatchOptions) (*watcher.FileWatcher, error) {
	cfg := p.Config()
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, p.logger)
	if err != nil {
		return nil, err
	}

	navigation := watcher.NewFileSet(cfg.Navigation.File)
	configFile := watcher.NewFileSet()
	if err := fw.AddFile(cfg.Navigation.File); err != nil {
		fw.Stop()
		return nil, err
	}
	if opts.ConfigFile != "" && opts.LoadConfig != nil {
		if err := fw.AddFile(opts.ConfigFile); err != nil {
			fw.Stop()
			return nil, err
		}
		configFile.Add(opts.ConfigFile)
	}

	inputs := []watcher.FileFilter{navigation.Contains, configFile.Contains}
	if opts.Pages {
		if info, err := os.Stat(cfg.Pages.Dir); err == nil && info.IsDir() {
			if err := fw.AddRecursive(cfg.Pages.Dir); err != nil {
				fw.Stop()
				return nil, err
			}
			inputs = append(inputs, watcher.PagesFilter(cfg.Pages.Dir, cfg.Pages.Extensions...))
		} else {
			p.logger.Debug(ctx, "Pages directory not found, not watching it", "dir", cfg.Pages.Dir)
		}
	}

	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.AnyOf(inputs...))
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		var change Change
		for _, e := range events {
			switch {
			case configFile.Contains(e.Path):
				change.Config = true
			case navigation.Contains(e.Path):
				change.Navigation = true
			default:
				change.Pages = true
			}
		}

		if change.Config {
			if err := p.reloadConfig(ctx, fw, navigation, opts); err != nil {
				p.logger.Error(ctx, err, "Keeping the previous config")
			}
		}
		if opts.OnChange != nil {
			return opts.OnChange(ctx, change)
		}
		_, err := p.Build(ctx)
		return err
	})

	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	p.logger.Info(ctx, "Watching for changes", "paths", fw.WatchList())
	return fw, nil
}

func (p *Pipeline) reloadConfig(ctx context.Context, fw *watcher.FileWatcher, navigation *watcher.FileSet, opts WatchOptions) error {
	next, err := opts.LoadConfig()
	if err != nil {
		return docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "config not reloaded").WithLocation(opts.ConfigFile)
	}

	prev := p.Config()
	if next.Navigation.File != prev.Navigation.File {
		if err := fw.AddFile(next.Navigation.File); err != nil {
			return err
		}
		navigation.Remove(prev.Navigation.File)
		navigation.Add(next.Navigation.File)
	}
	p.SetConfig(next)
	p.logger.Info(ctx, "Config reloaded", "path", opts.ConfigFile, "navigation", next.Navigation.File)
	return nil
}
