package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"folio/internal/config"
)

// PruneFromConfig applies logging.retention_days to rotated folio logs,
// keeping the active file. It returns the number of files removed.
func PruneFromConfig(logger *slog.Logger, cfg *config.Config) int {
	if cfg == nil || cfg.Logging.RetentionDays <= 0 {
		return 0
	}
	maxAge := time.Duration(cfg.Logging.RetentionDays) * 24 * time.Hour
	return PruneLogs(logger, cfg.Paths.LogDir, cfg.LogPath(), maxAge, time.Now())
}

// PruneLogs removes folio*.log* files in dir last modified before now-maxAge.
// active is never removed.
func PruneLogs(logger *slog.Logger, dir, active string, maxAge time.Duration, now time.Time) int {
	if dir == "" || maxAge <= 0 {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, "folio*.log*"))
	if err != nil {
		return 0
	}
	activeAbs, _ := filepath.Abs(active)
	cutoff := now.Add(-maxAge)

	removed := 0
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil && abs == activeAbs {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "old log file could not be removed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "log directory keeps growing"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("old logs pruned",
			Int("removed", removed),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
