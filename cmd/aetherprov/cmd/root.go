package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aetherlink/aetherprov/internal/config"
	"github.com/aetherlink/aetherprov/internal/logging"
	"github.com/aetherlink/aetherprov/pkg/provision"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
)

// Shared state populated by initRun before any command runs.
var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aetherprov",
	Short: "AetherLink firmware build and provisioning tool",
	Long: `Build, flash and verify AetherLink node firmware over a CMSIS-DAP
debug probe. Each of the three node roles (client, forward, server) maps to
one cargo package and one flash image; flashing always runs OpenOCD's
program/verify/reset sequence so a board is never left half-written without
the tool saying so.

Examples:
  aetherprov build                         # Build firmware for all three roles
  aetherprov build client forward          # Build a subset
  aetherprov flash server                  # Flash and verify the server image
  aetherprov detect                        # Check the debug probe is attached
  aetherprov targets                       # Show the role to package mapping
  aetherprov export --out dist             # Bundle built images for release`,
	Version:           "0.9.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRun,
}

// Execute runs the root command and maps the failure class to the process
// exit code: 1 build/flash failure, 2 probe not detected, 3 configuration,
// 4 environment. Interrupt cancels the context so a hung tool invocation
// dies with the command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		if logger != nil {
			logger.Sync()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor classifies an error into the documented exit codes. Unknown
// errors count as operation failures, not environment ones, so scripted
// callers retry only when retrying can help.
func exitCodeFor(err error) int {
	var notFound *provision.DeviceNotFoundError
	var confErr *provision.ConfigError
	var envErr *provision.EnvironmentError
	var scanErr *usbscan.EnvError
	switch {
	case errors.As(err, &notFound):
		return 2
	case errors.As(err, &confErr):
		return 3
	case errors.As(err, &envErr), errors.As(err, &scanErr):
		return 4
	default:
		return 1
	}
}

func initRun(cmd *cobra.Command, args []string) error {
	// An explicit --env-file must exist; the implicit ./.env is optional.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return &provision.ConfigError{Err: fmt.Errorf("env file %s: %w", envFile, err)}
		}
	} else {
		godotenv.Load()
	}

	var err error
	cfg, err = config.Resolve(configPath)
	if err != nil {
		return &provision.ConfigError{Err: err}
	}

	logger = logging.New(verbose)
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ./aetherprov.yaml, or $AETHERPROV_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "",
		"load environment variables from this file before reading config")
}
