// Package cmd provides the docnav command-line interface.
//
// Configuration is resolved with this precedence, highest first:
//
//  1. Command-line flags (--close-others, --root, --port, ...)
//  2. DOCNAV_* environment variables, e.g. DOCNAV_SIDEBAR_CLOSE_OTHERS=false
//  3. The config file: --config, else DOCNAV_CONFIG_FILE, else .docnav.yml
//  4. Built-in defaults
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dojobyexample/docnav/internal/config"
	docerrors "github.com/dojobyexample/docnav/internal/errors"
	"github.com/dojobyexample/docnav/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFileEnv names a config file to use when --config is not given.
const ConfigFileEnv = "DOCNAV_CONFIG_FILE"

// DefaultConfigFile is the config file searched in the working directory.
const DefaultConfigFile = ".docnav.yml"

// rootOptions is the state shared by every subcommand of one invocation.
type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string

	v      *viper.Viper
	logger *logging.DocnavLogger
}

// NewRootCmd builds the docnav command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "docnav",
		Short: "Derive per-route Vocs sidebars from one navigation tree",
		Long: `docnav keeps a Vocs documentation sidebar in one navigation file and
derives the sidebar shown on every top-level route from it: the section that
owns the route is expanded, the other sections are collapsed.

Quick Start:
  docnav init                 Write .docnav.yml and a starter navigation.yml
  docnav generate             Write sidebar.generated.ts for vocs.config.ts
  docnav validate --pages     Check the tree and the pages it links to
  docnav serve                Preview every route's sidebar with live reload

Command Aliases:
  generate (g), routes (r), watch (w), serve (s)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "",
		"config file (default is "+DefaultConfigFile+", can also use "+ConfigFileEnv+")")
	cmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newValidateCmd(opts),
		newRoutesCmd(opts),
		newPagesCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newInitCmd(opts),
		newVersionCmd(opts),
	)

	return cmd
}

// Execute runs the CLI and reports a failure on stderr.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}
	return err
}

// initLogging builds the command logger from --log-level and --log-format.
func (o *rootOptions) initLogging(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.logger = logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: o.logFormat,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// initConfig selects and reads the config file and sets up logging.
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	if err := o.initLogging(cmd); err != nil {
		return err
	}

	explicit := true
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		o.v.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		o.v.AddConfigPath(".")
		o.v.SetConfigType("yaml")
		o.v.SetConfigName(".docnav")
	}

	config.BindEnv(o.v)

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			o.logger.Debug(cmd.Context(), "No config file found, using defaults")
			return nil
		}
		return docerrors.WrapConfig(err, docerrors.ErrCodeConfigInvalid, "cannot read config file").
			WithLocation(o.v.ConfigFileUsed())
	}
	o.logger.Debug(cmd.Context(), "Using config file", "path", o.v.ConfigFileUsed())
	return nil
}

// loadConfig binds the command's flags and returns the validated config.
func (o *rootOptions) loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	if err := bindFlags(o.v, cmd, bindings); err != nil {
		return nil, err
	}
	return config.LoadFrom(o.v)
}

// log returns the command logger. It is only nil before initConfig ran.
func (o *rootOptions) log() logging.Logger {
	if o.logger == nil {
		return logging.NewNop()
	}
	return o.logger
}

// printError writes err to w, one line per invalid node when there are
// several.
func printError(w io.Writer, err error) {
	if nodeErrs, ok := docerrors.AsNodeErrors(err); ok && len(nodeErrs.Errors) > 1 {
		fmt.Fprintf(w, "Error: %d invalid navigation entries\n", len(nodeErrs.Errors))
		for _, e := range nodeErrs.Errors {
			fmt.Fprintf(w, "  - %s\n", e.Error())
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// errorHint suggests a next step for configuration and file errors.
func errorHint(err error) string {
	switch docerrors.GetType(err) {
	case docerrors.ErrorTypeConfig:
		return "check the config file and the DOCNAV_* environment variables"
	case docerrors.ErrorTypeIO:
		if docerrors.GetCode(err) == docerrors.ErrCodeFileNotFound {
			return "run `docnav init` to create a starter navigation file"
		}
	}
	return ""
}
