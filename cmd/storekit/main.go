package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/storekit/internal/config"
	"github.com/vango-dev/storekit/internal/errors"
	"github.com/vango-dev/storekit/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┬─┐┌─┐┬┌─┬┌┬┐
  └─┐ │ │ │├┬┘├┤ ├┴┐│ │
  └─┘ ┴ └─┘┴└─└─┘┴ ┴┴ ┴
`

// globalFlags are shared by every command.
type globalFlags struct {
	configDir string
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "storekit",
		Short: "A minimal state store with selectors and view subscriptions",
		Long: `storekit is a small state-management layer for Go UIs.

A store holds one state object, derives memoized selector values
from it, and re-renders only the views subscribed to what changed.

  • Shallow-merge patches, one re-render per patch
  • Lazily recomputed selectors
  • Subscriptions tied to view mount and unmount
  • HTTP/WebSocket inspector with Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing storekit.json")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		demoCmd(flags),
		serveCmd(flags),
		tuiCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// load reads configuration and applies command-line overrides.
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configDir)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger builds the command logger and installs it as the slog default.
func (f *globalFlags) logger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(cfg.EffectiveLogLevel(), cfg.LogFormat, w)
	if err != nil {
		return nil, errors.New("S011").Wrap(err)
	}
	slog.SetDefault(logger)
	return logger, nil
}

// printBanner prints the storekit ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// printError prints structured errors in full and anything else on one line.
func printError(w io.Writer, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		errors.Fprint(w, e)
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
}
