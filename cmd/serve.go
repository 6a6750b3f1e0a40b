package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Preview the sidebar of every route in the browser",
		Long: `Start a local preview server that renders the sidebar bound to each
route, exactly as Vocs will receive it. The page reloads when the navigation
file, the config file or a page changes; an invalid edit shows the error and
keeps the last good sidebar.

Endpoints:
  /              every route with its owning section
  /route/<key>   the sidebar bound to one route
  /sidebar.json  the full config, readable by the Vocs dev server
  /pages.json    navigation links checked against the pages directory
  /health        build status and metrics

Examples:
  docnav serve
  docnav serve --port 8080 --close-others=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, sidebarBindings, serverBindings))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(build.NewPipeline(cfg, opts.log()), opts.log())
			if used := opts.v.ConfigFileUsed(); used != "" {
				srv.WatchConfig(used, opts.reloadConfig)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Previewing %s at http://%s\n", cfg.Navigation.File, cfg.Addr())
			return srv.Start(ctx, cfg.Addr())
		},
	}

	addNavigationFlags(cmd.Flags())
	addSidebarFlags(cmd.Flags())
	addServerFlags(cmd.Flags())

	return cmd
}
