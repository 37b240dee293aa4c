// Package sched maps wall-clock time to the music directory that should be
// active, based on weekly time ranges encoded in directory names.
package sched

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultDirName is the fallback directory used when no time range matches.
const DefaultDirName = "default"

// Scheduler selects the directory for the current moment. It is stateless;
// the base directory is rescanned on every call so schedule changes take
// effect without a restart.
type Scheduler struct {
	logger *zap.Logger
}

// NewScheduler creates a new Scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.Named("sched"),
	}
}

// Select returns the subdirectory of baseDir whose time range contains now.
// When several ranges match, the narrowest one wins; equal-duration matches
// resolve to the lexicographically smallest directory name. If no range
// matches, a literal `default` subdirectory is returned when present.
// The second return value is false when nothing matches at all, which the
// caller interprets as forced silence. An unreadable base directory is
// treated the same way, never as a fatal error.
func (s *Scheduler) Select(baseDir string, now time.Time) (string, bool) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		s.logger.Warn("Cannot read base directory",
			zap.String("dir", baseDir),
			zap.Error(err))
		return "", false
	}

	day := WeekdayNumber(now.Weekday())
	hour := now.Hour()

	var bestDir string
	bestDuration := -1

	// os.ReadDir returns entries sorted by name, so keeping the first
	// entry with the minimal duration makes equal-duration ties stable.
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		tr, ok := ParseDirName(entry.Name())
		if !ok {
			continue
		}

		if !tr.Contains(day, hour) {
			continue
		}

		if bestDuration < 0 || tr.Duration() < bestDuration {
			bestDir = entry.Name()
			bestDuration = tr.Duration()
		}
	}

	if bestDuration >= 0 {
		selected := filepath.Join(baseDir, bestDir)
		s.logger.Debug("Selected schedule directory",
			zap.String("dir", selected),
			zap.Int("duration_hours", bestDuration))
		return selected, true
	}

	defaultDir := filepath.Join(baseDir, DefaultDirName)
	if info, err := os.Stat(defaultDir); err == nil && info.IsDir() {
		s.logger.Debug("No schedule match, using default directory",
			zap.String("dir", defaultDir))
		return defaultDir, true
	}

	return "", false
}
