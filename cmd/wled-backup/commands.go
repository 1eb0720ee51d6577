package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wled-backup/internal/backup"
	"github.com/muurk/wled-backup/internal/config"
	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/logging"
	"github.com/muurk/wled-backup/internal/runner"
	"github.com/muurk/wled-backup/internal/schedule"
	"github.com/muurk/wled-backup/internal/snapshot"
	"github.com/muurk/wled-backup/internal/ui"
	"github.com/muurk/wled-backup/internal/urls"
	"github.com/muurk/wled-backup/internal/wled"
)

// Backup flags. They override the config file only when given.
var (
	configPath    string
	outDir        string
	searchSecs    int
	maxParallel   int
	timeout       time.Duration
	artifactNames []string
	logLevel      string

	s3Endpoint  string
	s3Bucket    string
	s3Prefix    string
	s3AccessKey string
	s3SecretKey string
	s3Secure    bool

	watchInterval time.Duration
)

func init() {
	defaults := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/wled-backup/config.yaml)")
	flags.StringVar(&outDir, "out-dir", "", "Directory to write backups to (created if missing)")
	flags.IntVar(&searchSecs, "search-secs", defaults.SearchSecs, "mDNS search window in seconds")
	flags.IntVar(&maxParallel, "max-parallel", defaults.MaxParallel, "Maximum devices contacted at once")
	flags.DurationVar(&timeout, "timeout", defaults.Timeout, "Timeout for backing up one device")
	flags.StringSliceVar(&artifactNames, "artifacts", nil, "Artifacts to save: cfg, presets, state (default cfg,presets)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	flags.StringVar(&s3Endpoint, "s3-endpoint", "", "S3 endpoint (host:port) to mirror backups to")
	flags.StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket for mirrored backups")
	flags.StringVar(&s3Prefix, "s3-prefix", "", "Key prefix inside the S3 bucket")
	flags.StringVar(&s3AccessKey, "s3-access-key", "", "S3 access key (or "+config.EnvS3AccessKey+")")
	flags.StringVar(&s3SecretKey, "s3-secret-key", "", "S3 secret key (or "+config.EnvS3SecretKey+")")
	flags.BoolVar(&s3Secure, "s3-secure", false, "Use TLS for the S3 endpoint")

	watchCmd.Flags().DurationVar(&watchInterval, "interval", config.DefaultWatchInterval, "Delay between passes (or "+config.EnvBackupDelay+" seconds)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
}

// scanCmd discovers devices without backing them up
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List WLED devices on the network",
	Long: `Browse for WLED devices over mDNS for the search window and list
every unique device found. Nothing is fetched or written.`,
	Example: `  # Scan for 10 seconds (default)
  wled-backup scan

  # Quick 3-second scan
  wled-backup scan --search-secs 3`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

// watchCmd runs backup passes forever
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a backup pass repeatedly",
	Long: `Run a backup pass immediately, then again after each interval, until
interrupted. A failed pass is reported and the next one runs on schedule.

SEARCH_SECS and BACKUP_DELAY (seconds) are honored for compatibility with
container deployments; flags take precedence.`,
	Example: `  # Hourly backups
  wled-backup watch --out-dir /srv/backups/wled --interval 1h`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// loadSettings layers the config file, the environment, and any flags
// given on the command line
func loadSettings(cmd *cobra.Command, watch bool) (*config.Settings, error) {
	s, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	s.ApplyEnv()
	if watch {
		if err := s.ApplyWatchEnv(); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		s.OutDir = outDir
	}
	if flags.Changed("search-secs") {
		s.SearchSecs = searchSecs
	}
	if flags.Changed("max-parallel") {
		s.MaxParallel = maxParallel
	}
	if flags.Changed("timeout") {
		s.Timeout = timeout
	}
	if flags.Changed("artifacts") {
		s.Artifacts = artifactNames
	}
	if flags.Changed("log-level") {
		s.LogLevel = logLevel
	}
	if flags.Changed("s3-endpoint") {
		s.S3.Endpoint = s3Endpoint
	}
	if flags.Changed("s3-bucket") {
		s.S3.Bucket = s3Bucket
	}
	if flags.Changed("s3-prefix") {
		s.S3.Prefix = s3Prefix
	}
	if flags.Changed("s3-access-key") {
		s.S3.AccessKey = s3AccessKey
	}
	if flags.Changed("s3-secret-key") {
		s.S3.SecretKey = s3SecretKey
	}
	if flags.Changed("s3-secure") {
		s.S3.Secure = s3Secure
	}
	if watch && flags.Changed("interval") {
		s.Watch.Interval = watchInterval
	}

	if err := logging.Initialize(s.LogLevel); err != nil {
		return nil, err
	}
	return s, nil
}

// newController wires one backup pass from settings
func newController(s *config.Settings) (*runner.Controller, *wled.Fetcher, error) {
	artifacts, err := s.ArtifactList()
	if err != nil {
		return nil, nil, err
	}

	writer := snapshot.NewWriter(s.OutDir)
	if s.S3Enabled() {
		mirror, err := snapshot.NewS3Mirror(s.S3Options())
		if err != nil {
			return nil, nil, err
		}
		writer.Mirror = mirror
	}

	fetcher := wled.NewFetcher()
	ctrl := &runner.Controller{
		Discoverer: discovery.NewScanner(),
		Orchestrator: &backup.Orchestrator{
			Fetcher:     fetcher,
			Writer:      writer,
			MaxParallel: s.MaxParallel,
			Timeout:     s.Timeout,
			Artifacts:   artifacts,
		},
		Sweeper:  writer,
		SweepAge: s.SweepAge,
		Window:   s.SearchWindow(),
		OutDir:   s.OutDir,
	}
	return ctrl, fetcher, nil
}

// runPass performs one pass and prints its summary
func runPass(ctx context.Context, s *config.Settings) (*backup.Run, error) {
	ctrl, fetcher, err := newController(s)
	if err != nil {
		return nil, err
	}
	defer fetcher.CloseIdleConnections()

	run, err := ctrl.Run(ctx)
	if run != nil {
		fmt.Println(ui.RenderSummary(run))
	}
	return run, err
}

func runBackup(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, false)
	if err != nil {
		return &exitError{code: runner.ExitFatal, err: err}
	}
	if err := s.Validate(); err != nil {
		return &exitError{code: runner.ExitFatal, err: err}
	}

	run, err := runPass(cmd.Context(), s)
	code := runner.ExitCode(run, err)
	if code == runner.ExitOK {
		return nil
	}
	if run != nil && err == nil {
		// Failures are already in the summary
		return &exitError{code: code}
	}
	return &exitError{code: code, err: err}
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, false)
	if err != nil {
		return &exitError{code: runner.ExitFatal, err: err}
	}
	if s.SearchSecs <= 0 {
		return &exitError{code: runner.ExitFatal, err: fmt.Errorf("search window must be positive, got %d", s.SearchSecs)}
	}

	styled := ui.IsTerminal()
	if styled {
		fmt.Printf("Scanning for WLED devices (%s)...\n\n", s.SearchWindow())
	}

	devices, err := discovery.NewScanner().Discover(cmd.Context(), s.SearchWindow())
	var discErr *discovery.DiscoveryError
	if errors.As(err, &discErr) {
		return &exitError{code: runner.ExitFatal, err: err}
	}

	fmt.Print(ui.RenderDevices(devices, styled))
	if len(devices) == 0 {
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the controllers are powered on and joined to this network")
		fmt.Println("  - mDNS uses UDP port 5353; check that a firewall does not block it")
		fmt.Println("  - Try increasing --search-secs for slower networks")
		return nil
	}
	fmt.Printf("\nArtifact formats: %s\n", urls.JSONAPI)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, true)
	if err != nil {
		return &exitError{code: runner.ExitFatal, err: err}
	}
	if err := s.ValidateWatch(); err != nil {
		return &exitError{code: runner.ExitFatal, err: err}
	}

	pass := func(ctx context.Context) (*backup.Run, error) {
		return runPass(ctx, s)
	}
	return newSupervisor(s.Watch.Interval, pass, os.Stderr).Run(cmd.Context())
}

// newSupervisor repeats pass every interval. Failed passes are written to
// stderr since watch mode has no exit code to carry them.
func newSupervisor(interval time.Duration, pass func(context.Context) (*backup.Run, error), stderr io.Writer) *schedule.Supervisor {
	return &schedule.Supervisor{
		Interval: interval,
		Pass: func(ctx context.Context) error {
			run, err := pass(ctx)
			if err != nil {
				return err
			}
			if !run.OK() {
				return fmt.Errorf("%d of %d devices failed", run.Failed(), len(run.Outcomes))
			}
			return nil
		},
		After: func(n int, err error) {
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintf(stderr, "Error: backup pass %d: %v\n", n, err)
		},
	}
}
