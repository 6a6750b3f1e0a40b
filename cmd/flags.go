package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Flag names shared by several commands, mapped to their config keys.
const (
	flagNavigation  = "navigation"
	flagCloseOthers = "close-others"
	flagRoot        = "root"
	flagHomeLabel   = "home-label"
	flagOutput      = "output"
	flagFormat      = "format"
	flagPagesDir    = "pages-dir"
	flagHost        = "host"
	flagPort        = "port"
)

var (
	navigationBindings = map[string]string{
		flagNavigation: "navigation.file",
	}
	sidebarBindings = map[string]string{
		flagCloseOthers: "sidebar.close_others",
		flagRoot:        "sidebar.root",
		flagHomeLabel:   "sidebar.home_label",
	}
	outputBindings = map[string]string{
		flagOutput: "output.file",
		flagFormat: "output.format",
	}
	pagesBindings = map[string]string{
		flagPagesDir: "pages.dir",
	}
	serverBindings = map[string]string{
		flagHost: "server.host",
		flagPort: "server.port",
	}
)

func addNavigationFlags(fs *pflag.FlagSet) {
	fs.StringP(flagNavigation, "n", "", "navigation file (.yml, .yaml or .json)")
}

func addSidebarFlags(fs *pflag.FlagSet) {
	fs.Bool(flagCloseOthers, true, "collapse every section except the one owning the route")
	fs.String(flagRoot, "", "sidebar bound to \"/\": unmodified or home")
	fs.String(flagHomeLabel, "", "top-level label that owns \"/\" and gets no route of its own")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringP(flagOutput, "o", "", "output file, - for stdout")
	fs.StringP(flagFormat, "f", "", "output format (json, yaml, ts); inferred from the output file by default")
}

func addPagesFlags(fs *pflag.FlagSet) {
	fs.String(flagPagesDir, "", "Vocs pages directory")
}

func addServerFlags(fs *pflag.FlagSet) {
	fs.String(flagHost, "", "host to bind to")
	fs.IntP(flagPort, "p", 0, "port to serve on")
}

// mergeBindings combines binding sets.
func mergeBindings(sets ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, set := range sets {
		for flag, key := range set {
			out[flag] = key
		}
	}
	return out
}

// bindFlags binds each flag of cmd to its config key. Unchanged flags fall
// through to the environment, the config file and the defaults.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for name, key := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag --%s is not defined on %s", name, cmd.Name())
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// listFormat is the output format of listing commands.
type listFormat string

const (
	listTable listFormat = "table"
	listJSON  listFormat = "json"
	listYAML  listFormat = "yaml"
)

func addListFormatFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "output", "o", string(listTable), "output format (table, json, yaml)")
}

func parseListFormat(s string) (listFormat, error) {
	switch listFormat(strings.ToLower(s)) {
	case listTable:
		return listTable, nil
	case listJSON:
		return listJSON, nil
	case listYAML, "yml":
		return listYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: table, json, yaml)", s)
	}
}

// writeStructured writes v as indented JSON or YAML.
func writeStructured(w io.Writer, format listFormat, v interface{}) error {
	switch format {
	case listJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case listYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}
