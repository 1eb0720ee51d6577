package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wled-backup/internal/wled"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "wled-backup") {
		t.Errorf("GetConfigDir() = %v, should contain 'wled-backup'", configDir)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join(xdg, "wled-backup") {
		t.Errorf("GetConfigDir() = %s, want %s", configDir, filepath.Join(xdg, "wled-backup"))
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	s := Default()

	if s.SearchWindow() != 10*time.Second {
		t.Errorf("SearchWindow() = %v, want 10s", s.SearchWindow())
	}
	if s.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, want 4", s.MaxParallel)
	}
	if s.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", s.Timeout)
	}
	if s.S3Enabled() {
		t.Error("S3 mirror should be disabled by default")
	}

	artifacts, err := s.ArtifactList()
	if err != nil {
		t.Fatalf("ArtifactList() error = %v", err)
	}
	if len(artifacts) != 2 || artifacts[0] != wled.ArtifactConfig || artifacts[1] != wled.ArtifactPresets {
		t.Errorf("ArtifactList() = %v, want [cfg presets]", artifacts)
	}

	// out_dir has no default
	if err := s.Validate(); err == nil {
		t.Error("Validate() should require out_dir")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
out_dir: /srv/backups/wled
search_secs: 5
max_parallel: 8
timeout: 3s
artifacts: [state, cfg]
s3:
  endpoint: minio.lan:9000
  bucket: backups
  prefix: wled
  secure: true
watch:
  interval: 30m
`)

	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.OutDir != "/srv/backups/wled" {
		t.Errorf("OutDir = %s", s.OutDir)
	}
	if s.SearchWindow() != 5*time.Second {
		t.Errorf("SearchWindow() = %v, want 5s", s.SearchWindow())
	}
	if s.MaxParallel != 8 {
		t.Errorf("MaxParallel = %d, want 8", s.MaxParallel)
	}
	if s.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", s.Timeout)
	}
	if s.Watch.Interval != 30*time.Minute {
		t.Errorf("Watch.Interval = %v, want 30m", s.Watch.Interval)
	}
	if !s.S3Enabled() || !s.S3.Secure || s.S3.Prefix != "wled" {
		t.Errorf("S3 = %+v", s.S3)
	}

	// Unset keys keep their defaults
	if s.SweepAge != time.Hour {
		t.Errorf("SweepAge = %v, want default 1h", s.SweepAge)
	}

	artifacts, err := s.ArtifactList()
	if err != nil {
		t.Fatalf("ArtifactList() error = %v", err)
	}
	if artifacts[0] != wled.ArtifactConfig {
		t.Errorf("ArtifactList()[0] = %s, want cfg first", artifacts[0])
	}

	if err := s.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "out_dir: /tmp\nserch_secs: 5\n"},
		{"bad duration", "timeout: soon\n"},
		{"not a mapping", "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() should return error")
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if s.MaxParallel != Default().MaxParallel {
		t.Errorf("MaxParallel = %d, want default", s.MaxParallel)
	}
}

func TestLoad(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wled.yaml")
		if err := os.WriteFile(path, []byte("out_dir: /backups\n"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s.OutDir != "/backups" {
			t.Errorf("OutDir = %s, want /backups", s.OutDir)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Load() should fail for a missing explicit path")
		}
	})

	t.Run("default path missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		s, err := Load("")
		if err != nil {
			t.Fatalf("Load(\"\") error = %v", err)
		}
		if s.MaxParallel != Default().MaxParallel {
			t.Errorf("MaxParallel = %d, want default", s.MaxParallel)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		s := Default()
		s.OutDir = "/backups"
		return s
	}

	tests := []struct {
		name    string
		modify  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"zero window", func(s *Settings) { s.SearchSecs = 0 }, "search_secs"},
		{"zero parallel", func(s *Settings) { s.MaxParallel = 0 }, "max_parallel"},
		{"negative timeout", func(s *Settings) { s.Timeout = -time.Second }, "timeout"},
		{"unknown artifact", func(s *Settings) { s.Artifacts = []string{"cfg", "effects"} }, "effects"},
		{"bucket without endpoint", func(s *Settings) { s.S3.Bucket = "backups" }, "s3.endpoint"},
		{"endpoint without bucket", func(s *Settings) { s.S3.Endpoint = "minio:9000" }, "s3.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.modify(s)

			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWatch(t *testing.T) {
	s := Default()
	s.OutDir = "/backups"

	if err := s.ValidateWatch(); err != nil {
		t.Errorf("ValidateWatch() error = %v", err)
	}

	s.Watch.Interval = 0
	if err := s.ValidateWatch(); err == nil {
		t.Error("ValidateWatch() should reject a zero interval")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvS3AccessKey, "minioadmin")
	t.Setenv(EnvS3SecretKey, "miniosecret")

	s := Default()
	s.S3.AccessKey = "from-file"
	s.ApplyEnv()

	if s.S3.AccessKey != "minioadmin" || s.S3.SecretKey != "miniosecret" {
		t.Errorf("S3 credentials = %q/%q", s.S3.AccessKey, s.S3.SecretKey)
	}

	opts := s.S3Options()
	if opts.AccessKey != "minioadmin" {
		t.Errorf("S3Options().AccessKey = %q", opts.AccessKey)
	}
}

func TestApplyWatchEnv(t *testing.T) {
	tests := []struct {
		name         string
		envVars      map[string]string
		wantErr      bool
		wantWindow   time.Duration
		wantInterval time.Duration
	}{
		{
			name:         "unset keeps defaults",
			envVars:      map[string]string{},
			wantWindow:   10 * time.Second,
			wantInterval: DefaultWatchInterval,
		},
		{
			name:         "both set",
			envVars:      map[string]string{EnvSearchSecs: "5", EnvBackupDelay: "3600"},
			wantWindow:   5 * time.Second,
			wantInterval: time.Hour,
		},
		{
			name:    "invalid delay",
			envVars: map[string]string{EnvBackupDelay: "hourly"},
			wantErr: true,
		},
		{
			name:    "invalid window",
			envVars: map[string]string{EnvSearchSecs: "ten"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvSearchSecs, "")
			t.Setenv(EnvBackupDelay, "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			s := Default()
			err := s.ApplyWatchEnv()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyWatchEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if s.SearchWindow() != tt.wantWindow {
				t.Errorf("SearchWindow() = %v, want %v", s.SearchWindow(), tt.wantWindow)
			}
			if s.Watch.Interval != tt.wantInterval {
				t.Errorf("Watch.Interval = %v, want %v", s.Watch.Interval, tt.wantInterval)
			}
		})
	}
}
