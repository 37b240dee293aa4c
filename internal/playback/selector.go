// Package playback picks the next track to play from the currently
// scheduled directory, avoiding immediate repeats.
package playback

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jukecab/internal/sched"

	"go.uber.org/zap"
)

// trackExt is the only eligible file extension, compared case-insensitively.
const trackExt = ".mp3"

// Selector remembers which directory is active and which track played last
// so the same track never plays twice in a row when an alternative exists.
// It is owned by the single orchestration loop and needs no locking.
type Selector struct {
	baseDir   string
	scheduler *sched.Scheduler
	logger    *zap.Logger
	rng       *rand.Rand

	curDir         string
	lastPlayedName string
}

// NewSelector creates a new Selector rooted at baseDir
func NewSelector(baseDir string, scheduler *sched.Scheduler, logger *zap.Logger) *Selector {
	return &Selector{
		baseDir:   baseDir,
		scheduler: scheduler,
		logger:    logger.Named("playback"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SelectNext returns the path of the next track to play for the given
// moment. The second return value is false when nothing should play
// (forced silence): no directory is scheduled or the scheduled directory
// has no tracks.
func (s *Selector) SelectNext(now time.Time) (string, bool) {
	curDir, ok := s.scheduler.Select(s.baseDir, now)
	if !ok {
		s.logger.Info("No directory for current time")
		s.curDir = ""
		s.lastPlayedName = ""
		return "", false
	}

	filePaths := listTracks(curDir)
	if len(filePaths) == 0 {
		s.logger.Info("Directory has no tracks", zap.String("dir", curDir))
		s.curDir = curDir
		s.lastPlayedName = ""
		return "", false
	}

	if curDir != s.curDir {
		s.logger.Info("Directory changed",
			zap.String("dir", curDir),
			zap.Int("tracks", len(filePaths)))
		s.curDir = curDir
		s.lastPlayedName = ""
	}

	// Exclude the last played track unless it is the only one
	candidates := filePaths
	if s.lastPlayedName != "" && len(filePaths) > 1 {
		candidates = make([]string, 0, len(filePaths)-1)
		for _, p := range filePaths {
			if filepath.Base(p) != s.lastPlayedName {
				candidates = append(candidates, p)
			}
		}
	}

	selected := candidates[s.rng.Intn(len(candidates))]
	s.lastPlayedName = filepath.Base(selected)
	s.logger.Info("Selected track",
		zap.String("path", selected),
		zap.Int("candidates", len(candidates)))
	return selected, true
}

// listTracks returns the eligible track files in dir, sorted by
// case-insensitive name. An unreadable directory yields no tracks.
func listTracks(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), trackExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Slice(paths, func(i, j int) bool {
		return strings.ToLower(filepath.Base(paths[i])) < strings.ToLower(filepath.Base(paths[j]))
	})
	return paths
}
