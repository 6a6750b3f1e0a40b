package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/dojobyexample/docnav/internal/sidebar"
	"github.com/spf13/cobra"
)

// routeRow is one line of `docnav routes`.
type routeRow struct {
	Route    string `json:"route" yaml:"route"`
	Key      string `json:"key" yaml:"key"`
	Section  string `json:"section" yaml:"section"`
	Shadowed bool   `json:"shadowed,omitempty" yaml:"shadowed,omitempty"`
}

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "routes",
		Aliases: []string{"r"},
		Short:   "List the routes derived from the navigation tree",
		Long: `List every top-level route the sidebar config will contain and the
section that owns it. A section whose route is taken by a later section is
marked as shadowed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lf, err := parseListFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, sidebarBindings))
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(cfg.Navigation.File)
			if err != nil {
				return err
			}

			rows := routeRows(sidebar.NewPlan(doc.Tree, cfg.Sidebar.HomeLabel))
			if lf != listTable {
				return writeStructured(cmd.OutOrStdout(), lf, rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROUTE\tSECTION\tNOTE")
			for _, r := range rows {
				note := ""
				if r.Shadowed {
					note = "shadowed by a later section"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Route, r.Section, note)
			}
			return w.Flush()
		},
	}

	addNavigationFlags(cmd.Flags())
	addSidebarFlags(cmd.Flags())
	addListFormatFlag(cmd.Flags(), &format)

	return cmd
}

// routeRows lists "/" followed by every planned route in tree order.
func routeRows(plan *sidebar.Plan) []routeRow {
	last := make(map[string]int, len(plan.Routes))
	for i, r := range plan.Routes {
		last[r.Key] = i
	}

	rows := []routeRow{{Route: "/", Section: "(root)"}}
	for i, r := range plan.Routes {
		rows = append(rows, routeRow{
			Route:    r.Path(),
			Key:      r.Key,
			Section:  r.Label,
			Shadowed: last[r.Key] != i,
		})
	}
	return rows
}
