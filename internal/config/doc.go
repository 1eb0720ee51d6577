// Package config loads wled-backup settings.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables, then command-line flags (applied by the CLI).
//
// # Configuration File Location
//
// Unless --config is given, the file is read from:
//   - Linux: $XDG_CONFIG_HOME/wled-backup/config.yaml or $HOME/.config/wled-backup/config.yaml
//   - macOS: $HOME/.config/wled-backup/config.yaml
//   - Windows: %LOCALAPPDATA%\wled-backup\config.yaml
//
// A missing file at the default location is fine; every setting except
// out_dir has a default.
//
// # Example
//
//	out_dir: /srv/backups/wled
//	search_secs: 10
//	max_parallel: 4
//	timeout: 10s
//	artifacts: [cfg, presets, state]
//	s3:
//	  endpoint: minio.lan:9000
//	  bucket: backups
//	  prefix: wled
//	watch:
//	  interval: 1h
//
// S3 credentials are best supplied through WLED_BACKUP_S3_ACCESS_KEY and
// WLED_BACKUP_S3_SECRET_KEY.
package config
