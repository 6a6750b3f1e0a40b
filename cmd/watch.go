package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/config"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Regenerate the sidebar config whenever the navigation changes",
		Long: `Generate the sidebar config, then regenerate it each time the navigation
file or the config file changes. A change that makes the navigation invalid is
reported and the previous output is kept until the file is fixed.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, sidebarBindings, outputBindings))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.watch(ctx, cmd, cfg)
		},
	}

	addNavigationFlags(cmd.Flags())
	addSidebarFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())

	return cmd
}

func (o *rootOptions) watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	pipeline := build.NewPipeline(cfg, o.log())

	if result, err := pipeline.Emit(ctx); err != nil {
		o.log().Error(ctx, err, "Initial build failed, waiting for changes")
	} else {
		fmt.Fprintf(out, "Wrote %d routes to %s\n", len(result.Config), result.OutputFile)
	}

	fw, err := pipeline.Watch(ctx, build.WatchOptions{
		ConfigFile: o.v.ConfigFileUsed(),
		LoadConfig: o.reloadConfig,
		OnChange: func(ctx context.Context, _ build.Change) error {
			op := o.logger.StartOperation("rebuild")
			result, err := pipeline.Emit(ctx)
			if err != nil {
				op.EndWithError(ctx, err)
				return nil
			}
			op.End(ctx)
			if !result.CacheHit {
				fmt.Fprintf(out, "Wrote %d routes to %s\n", len(result.Config), result.OutputFile)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	defer fw.Stop()

	<-ctx.Done()
	return nil
}

// reloadConfig rereads the config file. Flags and environment overrides
// still apply.
func (o *rootOptions) reloadConfig() (*config.Config, error) {
	if err := o.v.ReadInConfig(); err != nil {
		return nil, err
	}
	return config.LoadFrom(o.v)
}
