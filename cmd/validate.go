package cmd

import (
	"fmt"
	"io"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/dojobyexample/docnav/internal/navigation"
	"github.com/dojobyexample/docnav/internal/pages"
	"github.com/dojobyexample/docnav/internal/sidebar"
	"github.com/spf13/cobra"
)

// validationReport counts the findings printed by validate.
type validationReport struct {
	w        io.Writer
	errors   int
	warnings int
}

func (r *validationReport) errorf(format string, args ...interface{}) {
	r.errors++
	fmt.Fprintf(r.w, "error: "+format+"\n", args...)
}

func (r *validationReport) warnf(format string, args ...interface{}) {
	r.warnings++
	fmt.Fprintf(r.w, "warning: "+format+"\n", args...)
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		checkPages bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the navigation tree",
		Long: `Validate the configuration and the navigation file without writing anything.

Reported errors:
  - entries without text, empty sections, duplicate labels among siblings
  - syntax errors and unknown fields in the navigation file
  - with --pages, links whose page does not exist

Reported warnings:
  - sections whose names collide on the same route (the later one wins)
  - sections whose name yields no route
  - links that are not site-absolute, collapsed flags on plain links
  - with --pages, unlinked pages and page titles that differ from the label

The command exits non-zero when errors are found, or warnings with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, mergeBindings(navigationBindings, sidebarBindings, pagesBindings))
			if err != nil {
				return err
			}

			report := &validationReport{w: cmd.OutOrStdout()}
			if err := runValidation(cmd, opts, cfg, report, checkPages); err != nil {
				return err
			}

			fmt.Fprintf(report.w, "%s: %d errors, %d warnings\n", cfg.Navigation.File, report.errors, report.warnings)
			if report.errors > 0 {
				return docerrors.NewValidationError(docerrors.ErrCodeInvalidNode,
					fmt.Sprintf("validation failed with %d errors", report.errors))
			}
			if strict && report.warnings > 0 {
				return docerrors.NewValidationError(docerrors.ErrCodeInvalidNode,
					fmt.Sprintf("validation failed with %d warnings (--strict)", report.warnings))
			}
			return nil
		},
	}

	addNavigationFlags(cmd.Flags())
	addSidebarFlags(cmd.Flags())
	addPagesFlags(cmd.Flags())
	cmd.Flags().BoolVar(&checkPages, "pages", false, "check that every link has a page")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	return cmd
}

// runValidation prints every finding to report. It returns an error only
// when validation itself could not run.
func runValidation(cmd *cobra.Command, opts *rootOptions, cfg *config.Config, report *validationReport, checkPages bool) error {
	details := config.ValidateConfigWithDetails(cfg)
	for _, e := range details.Errors {
		if e.Field == "navigation.file" {
			continue // reported below with the load error
		}
		report.errorf("%s: %s", e.Field, e.Message)
	}
	for _, w := range details.Warnings {
		if w.Field == "pages.dir" && !checkPages {
			continue
		}
		report.warnf("%s: %s", w.Field, w.Message)
	}

	doc, err := loader.LoadFile(cfg.Navigation.File)
	if err != nil {
		if nodeErrs, ok := docerrors.AsNodeErrors(err); ok {
			for _, e := range nodeErrs.Errors {
				report.errorf("%s", e.Error())
			}
			return nil
		}
		report.errorf("%v", err)
		return nil
	}

	for _, w := range doc.Warnings {
		report.warnf("%s", w.String())
	}

	plan := sidebar.NewPlan(doc.Tree, cfg.Sidebar.HomeLabel)
	for _, r := range plan.Skipped {
		report.warnf("section %q has no route key and is skipped", r.Label)
	}
	for _, c := range plan.Collisions {
		report.warnf("%s", c.Error())
	}

	fmt.Fprintf(report.w, "%s: %d entries, %d routes\n",
		cfg.Navigation.File, navigation.Count(doc.Tree), len(plan.Routes))

	if !checkPages {
		return nil
	}

	checker := pages.NewChecker(cfg.Pages.Dir, cfg.Pages.Extensions, opts.log())
	pageReport, err := checker.Check(cmd.Context(), doc.Tree)
	if err != nil {
		return err
	}
	for _, m := range pageReport.Missing {
		report.errorf("%s: link %s (%q) has no page", m.NodePath, m.Route, m.Label)
	}
	for _, p := range pageReport.TitleMismatches() {
		report.warnf("%s: page %s is titled %q but linked as %q", p.NodePath, p.File, p.Title, p.Label)
	}
	for _, o := range pageReport.Orphans {
		report.warnf("page %s is not linked from the navigation", o)
	}
	return nil
}
