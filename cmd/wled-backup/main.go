// Wled-backup discovers WLED lighting controllers on the local network and
// saves a snapshot of each device's configuration.
//
// Devices are found over mDNS (_wled._tcp.local.) during a bounded search
// window. Every device found is then contacted in parallel and its
// cfg.json (and optionally presets.json and live state) is written to the
// output directory. Devices are only read, never changed.
//
// Usage:
//
//	wled-backup --out-dir /srv/backups/wled [flags]
//	wled-backup scan
//	wled-backup watch --interval 1h --out-dir /srv/backups/wled
//
// Exit status is 0 when every device was backed up (or none was found), 1
// when at least one device failed, and 2 when discovery itself failed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/wled-backup/internal/logging"
	"github.com/muurk/wled-backup/internal/runner"
	"github.com/muurk/wled-backup/internal/urls"
	"github.com/muurk/wled-backup/internal/version"
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	os.Exit(exitCode(err))
}

// exitCode reports err on stderr and returns the matching exit code
func exitCode(err error) int {
	if err == nil {
		return runner.ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return runner.ExitFatal
}

var rootCmd = &cobra.Command{
	Use:   "wled-backup",
	Short: "Back up WLED controllers found on the local network",
	Long: `Discover WLED lighting controllers over mDNS and save a snapshot of
each device's configuration to disk.

Every device found within the search window is backed up in parallel.
A failing device is reported in the summary and does not stop the others.
Devices are only read, never changed.

Artifacts:
  cfg      /cfg.json, always saved (` + urls.JSONAPI + `)
  presets  /presets.json
  state    state pushed on /ws (` + urls.WebSocket + `)`,
	Example: `  # One pass, default 10 second search window
  wled-backup --out-dir /srv/backups/wled

  # Include presets and live state, and mirror to MinIO
  wled-backup --out-dir ./backups --artifacts cfg,presets,state \
    --s3-endpoint minio.lan:9000 --s3-bucket backups --s3-prefix wled`,
	Version:       version.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBackup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wled-backup %s\n", version.Full())
	},
}
