package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/muurk/wled-backup/internal/backup"
	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/snapshot"
	"github.com/muurk/wled-backup/internal/wled"
)

// Settings holds everything a backup pass needs. Values come from the
// defaults, then the config file, then the environment, then flags.
type Settings struct {
	OutDir      string        `yaml:"out_dir"`
	SearchSecs  int           `yaml:"search_secs"`
	MaxParallel int           `yaml:"max_parallel"`
	Timeout     time.Duration `yaml:"timeout"`
	Artifacts   []string      `yaml:"artifacts,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
	SweepAge    time.Duration `yaml:"sweep_age"`
	S3          S3Settings    `yaml:"s3,omitempty"`
	Watch       WatchSettings `yaml:"watch,omitempty"`
}

// S3Settings configures the optional bucket mirror
type S3Settings struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// WatchSettings configures repeated passes
type WatchSettings struct {
	// Interval is the delay between the end of one pass and the start of
	// the next
	Interval time.Duration `yaml:"interval,omitempty"`
}

// DefaultWatchInterval is the delay between passes in watch mode
const DefaultWatchInterval = time.Hour

// Default returns settings with every default applied. OutDir has no
// default and must be configured.
func Default() *Settings {
	return &Settings{
		SearchSecs:  int(discovery.DefaultSearchWindow / time.Second),
		MaxParallel: backup.DefaultMaxParallel,
		Timeout:     backup.DefaultTimeout,
		SweepAge:    snapshot.DefaultSweepAge,
		Watch:       WatchSettings{Interval: DefaultWatchInterval},
	}
}

// SearchWindow returns the discovery window
func (s *Settings) SearchWindow() time.Duration {
	return time.Duration(s.SearchSecs) * time.Second
}

// ArtifactList returns the artifacts to back up, cfg first
func (s *Settings) ArtifactList() ([]wled.Artifact, error) {
	return wled.ParseArtifacts(s.Artifacts)
}

// S3Enabled reports whether a bucket mirror is configured
func (s *Settings) S3Enabled() bool {
	return s.S3.Endpoint != "" || s.S3.Bucket != ""
}

// S3Options converts the S3 settings for snapshot.NewS3Mirror
func (s *Settings) S3Options() snapshot.S3Options {
	return snapshot.S3Options{
		Endpoint:  s.S3.Endpoint,
		Bucket:    s.S3.Bucket,
		Prefix:    s.S3.Prefix,
		AccessKey: s.S3.AccessKey,
		SecretKey: s.S3.SecretKey,
		Region:    s.S3.Region,
		Secure:    s.S3.Secure,
	}
}

// Validate checks the settings needed for a backup pass
func (s *Settings) Validate() error {
	var errs []error

	if s.OutDir == "" {
		errs = append(errs, errors.New("out_dir is required (set --out-dir or out_dir in the config file)"))
	}
	if s.SearchSecs <= 0 {
		errs = append(errs, fmt.Errorf("search_secs must be positive, got %d", s.SearchSecs))
	}
	if s.MaxParallel <= 0 {
		errs = append(errs, fmt.Errorf("max_parallel must be positive, got %d", s.MaxParallel))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", s.Timeout))
	}
	if s.SweepAge < 0 {
		errs = append(errs, fmt.Errorf("sweep_age must not be negative, got %s", s.SweepAge))
	}
	if _, err := s.ArtifactList(); err != nil {
		errs = append(errs, err)
	}
	if s.S3Enabled() {
		if s.S3.Endpoint == "" {
			errs = append(errs, errors.New("s3.endpoint is required when s3.bucket is set"))
		}
		if s.S3.Bucket == "" {
			errs = append(errs, errors.New("s3.bucket is required when s3.endpoint is set"))
		}
	}

	return errors.Join(errs...)
}

// ValidateWatch checks the settings needed for watch mode
func (s *Settings) ValidateWatch() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", s.Watch.Interval)
	}
	return nil
}
