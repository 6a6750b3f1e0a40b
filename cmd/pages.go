package cmd

import (
	"fmt"
	"text/tabwriter"

	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/dojobyexample/docnav/internal/pages"
	"github.com/spf13/cobra"
)

func newPagesCmd(opts *rootOptions) *cobra.Command {
	var (
		format  string
		orphans bool
	)

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Match navigation links with the files in the pages directory",
		Long: `Resolve every site-absolute link of the navigation tree to a page file.
A link /guides/react matches guides/react.mdx or guides/react/index.mdx in the
pages directory. The command fails when a link has no page.

Examples:
  docnav pages
  docnav pages --orphans
  docnav pages --pages-dir site/pages -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lf, err := parseListFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, pagesBindings))
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(cfg.Navigation.File)
			if err != nil {
				return err
			}

			report, err := pages.NewChecker(cfg.Pages.Dir, cfg.Pages.Extensions, opts.log()).Check(cmd.Context(), doc.Tree)
			if err != nil {
				return err
			}

			if lf != listTable {
				if err := writeStructured(cmd.OutOrStdout(), lf, report); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ROUTE\tSTATUS\tFILE\tTITLE")
				for _, p := range report.Resolved {
					status := "ok"
					if !p.TitleMatches() {
						status = "title differs"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Route, status, p.File, p.Title)
				}
				for _, m := range report.Missing {
					fmt.Fprintf(w, "%s\tmissing\t\t\n", m.Route)
				}
				if orphans {
					for _, o := range report.Orphans {
						fmt.Fprintf(w, "\torphan\t%s\t\n", o)
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if !report.OK() {
				return docerrors.NewValidationError(docerrors.ErrCodeFileNotFound,
					fmt.Sprintf("%d links have no page in %s", len(report.Missing), report.Dir))
			}
			return nil
		},
	}

	addNavigationFlags(cmd.Flags())
	addPagesFlags(cmd.Flags())
	addListFormatFlag(cmd.Flags(), &format)
	cmd.Flags().BoolVar(&orphans, "orphans", false, "also list pages no link points at")

	return cmd
}
