package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/dojobyexample/docnav/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show the docnav version, commit and build details.

Examples:
  docnav version
  docnav version --short
  docnav version --format json`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			info := version.GetBuildInfo()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "text", "":
			default:
				return fmt.Errorf("unsupported format %q (supported: text, json)", format)
			}

			switch {
			case short:
				fmt.Fprintln(out, info.Short())
			case detailed:
				fmt.Fprintln(out, "docnav")
				fmt.Fprintln(out, info.Detailed())
			default:
				fmt.Fprintf(out, "docnav %s\n", info.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "print build details")

	return cmd
}
