package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/loader"
	"github.com/spf13/cobra"
)

var configTemplate = template.Must(template.New(DefaultConfigFile).Parse(`# docnav configuration. Every key can be overridden with a DOCNAV_*
# environment variable, e.g. DOCNAV_SIDEBAR_CLOSE_OTHERS=false.

navigation:
  file: {{ .Navigation.File }}

sidebar:
  # Top-level label that owns "/" instead of getting a route of its own.
  home_label: {{ .Sidebar.HomeLabel }}
  # Collapse every section except the one owning the route.
  close_others: {{ .Sidebar.CloseOthers }}
  # Sidebar bound to "/": unmodified or home.
  root: {{ .Sidebar.Root }}

output:
  file: {{ .Output.File }}
  export_name: {{ .Output.ExportName }}

pages:
  dir: {{ .Pages.Dir }}
  extensions:{{ range .Pages.Extensions }}
    - "{{ . }}"{{ end }}

watch:
  debounce: {{ .Watch.Debounce }}

server:
  host: {{ .Server.Host }}
  port: {{ .Server.Port }}
`))

// renderConfig returns the config file written by init.
func renderConfig(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var (
		force      bool
		navigation string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and a starter navigation tree",
		Long: `Write ` + DefaultConfigFile + ` and a starter navigation file in the current
directory. Existing files are kept unless --force is given.

Examples:
  docnav init
  docnav init --navigation docs/navigation.yml`,
		Args: cobra.NoArgs,
		// The config file may not exist yet, so only logging is set up.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			cfg := config.Default()
			if navigation != "" {
				cfg.Navigation.File = navigation
			}
			if _, err := loader.FormatFromPath(cfg.Navigation.File); err != nil {
				return err
			}

			configFile := opts.cfgFile
			if configFile == "" {
				configFile = DefaultConfigFile
			}

			rendered, err := renderConfig(cfg)
			if err != nil {
				return docerrors.NewInternalError(docerrors.ErrCodeInternalError, "cannot render config", err)
			}

			starter := loader.Starter()
			if filepath.Ext(cfg.Navigation.File) == ".json" {
				doc, err := loader.Decode("starter.yml", starter)
				if err != nil {
					return err
				}
				compact, err := doc.Tree.MarshalJSON()
				if err != nil {
					return err
				}
				var indented bytes.Buffer
				if err := json.Indent(&indented, compact, "", "  "); err != nil {
					return err
				}
				indented.WriteByte('\n')
				starter = indented.Bytes()
			}

			for _, f := range []struct {
				path string
				data []byte
			}{
				{configFile, rendered},
				{cfg.Navigation.File, starter},
			} {
				written, err := writeNewFile(f.path, f.data, force)
				if err != nil {
					return err
				}
				if written {
					fmt.Fprintf(out, "Created %s\n", f.path)
				} else {
					fmt.Fprintf(out, "Kept existing %s (use --force to overwrite)\n", f.path)
				}
			}

			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  docnav validate    check the navigation tree")
			fmt.Fprintln(out, "  docnav generate    write " + cfg.Output.File)
			fmt.Fprintln(out, "  docnav serve       preview every route's sidebar")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().StringVarP(&navigation, flagNavigation, "n", "", "navigation file to create (default "+config.DefaultNavigationFile+")")

	return cmd
}

// writeNewFile writes data to path unless the file exists and force is
// false. It reports whether the file was written.
func writeNewFile(path string, data []byte, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, docerrors.WrapIO(err, docerrors.ErrCodeFileRead, "cannot stat file").WithLocation(path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, "cannot create directory").WithLocation(dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, docerrors.WrapIO(err, docerrors.ErrCodeFileWrite, fmt.Sprintf("cannot write %s", filepath.Base(path))).WithLocation(path)
	}
	return true, nil
}
