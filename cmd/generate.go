package cmd

import (
	"fmt"

	"github.com/dojobyexample/docnav/internal/build"
	"github.com/dojobyexample/docnav/internal/output"
	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var stdout bool

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Write the per-route sidebar config",
		Long: `Load the navigation tree, derive the sidebar for every top-level route
and write the result for vocs.config.ts to import.

The output format follows the output file extension (.ts, .json, .yml)
unless --format is given. A TypeScript module exports a Sidebar value:

  import { sidebar } from './sidebar.generated'
  export default defineConfig({ sidebar })

Examples:
  docnav generate
  docnav generate --stdout --format json
  docnav generate --close-others=false --root home -o docs/sidebar.generated.ts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stdout {
				opts.v.Set("output.file", build.StdoutFile)
			}
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, sidebarBindings, outputBindings))
			if err != nil {
				return err
			}

			pipeline := build.NewPipeline(cfg, opts.log())
			if cfg.Output.File == build.StdoutFile {
				result, err := pipeline.Build(cmd.Context())
				if err != nil {
					return err
				}
				format, err := build.OutputFormat(cfg)
				if err != nil {
					return err
				}
				return output.Write(cmd.OutOrStdout(), result.Config, format, build.OutputOptions(cfg))
			}

			result, err := pipeline.Emit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d routes to %s\n", len(result.Config), result.OutputFile)
			return nil
		},
	}

	addNavigationFlags(cmd.Flags())
	addSidebarFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of the output file")

	return cmd
}
