// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/source"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags
var (
	cfgFile    string
	cacheDir   string
	apiHost    string
	sourceMode string
	offline    bool
	jsonOutput bool
	snapshotAt string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mapcode [coordinate | mapcode]",
	Short: "Mapcode lookup - convert between coordinates and mapcodes",
	Long: `mapcode converts coordinates to mapcodes and mapcodes back to
coordinates using the Mapcode REST API, with a local cache that keeps
previously seen results available offline.

Single lookup:
  mapcode 52.376514,4.908543
  mapcode NLD 49.4V

Batch processing (read from stdin):
  cat inputs.txt | mapcode

Interactive session:
  mapcode watch`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runLookup,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mapcode/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory path (default: ~/.mapcode/cache)")
	rootCmd.PersistentFlags().StringVar(&apiHost, "host", "", "Mapcode API host")
	rootCmd.PersistentFlags().StringVar(&sourceMode, "source-mode", "", "lookup source: auto, online, or offline")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "offline mode (no network calls)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&snapshotAt, "snapshot", "", "territory snapshot date to use offline (YYYY-MM-DD, default latest)")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(territoriesCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// ExitCode constants
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitNoData       = 3
	ExitNotFound     = 4
	ExitRemoteFailed = 5
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func withCode(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// exitCode maps a command error to an exit code.
func exitCode(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude):
		return ExitInvalidInput
	case errors.Is(err, source.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, source.ErrUnavailable):
		return ExitNoData
	case errors.Is(err, context.Canceled):
		return ExitFailure
	default:
		return ExitRemoteFailed
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mapcode %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	},
}
