// Package logging provides structured logging for wled-backup.
//
// This package wraps a global zap logger with convenience functions. It is
// silent unless a level is passed to Initialize or set through the
// WLED_BACKUP_LOG_LEVEL environment variable, so the run summary stays the
// only output of a default invocation.
//
// # Log Levels
//
//   - Debug: mDNS browsing, per-artifact fetch timings
//   - Info: discovered devices, successful device backups
//   - Warn: failed device backups, cleanup problems
//   - Error: fatal run failures
//
// # Usage
//
//	if err := logging.Initialize("info"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.LogDevice("Device discovered", "wled-kitchen", "192.168.1.42:80")
//
// Logs are written to stderr in console format. All functions are safe for
// concurrent use.
package logging
