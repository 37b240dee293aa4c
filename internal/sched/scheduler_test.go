package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// weekTime builds a time on the given weekday (Monday=0..Sunday=6) at the
// given hour. 2024-01-01 is a Monday.
func weekTime(t *testing.T, day, hour int) time.Time {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func makeDirs(t *testing.T, names ...string) string {
	t.Helper()
	baseDir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.Mkdir(filepath.Join(baseDir, name), 0o755))
	}
	return baseDir
}

func TestScheduler_Select_MatchAndDefault(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)
	baseDir := makeDirs(t, "mon-08:mon-17", "default")

	// Monday 10:00 falls inside the Monday window
	dir, ok := s.Select(baseDir, weekTime(t, 0, 10))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "mon-08:mon-17"), dir)

	// Sunday 10:00 matches nothing, so the default wins
	dir, ok = s.Select(baseDir, weekTime(t, 6, 10))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "default"), dir)
}

func TestScheduler_Select_WrappingRange(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)
	baseDir := makeDirs(t, "fri-18:mon-06")

	dir, ok := s.Select(baseDir, weekTime(t, 5, 2)) // Saturday 2:00
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "fri-18:mon-06"), dir)

	dir, ok = s.Select(baseDir, weekTime(t, 6, 23)) // Sunday 23:00
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "fri-18:mon-06"), dir)

	_, ok = s.Select(baseDir, weekTime(t, 1, 9)) // Tuesday 9:00
	assert.False(t, ok, "Tuesday 9:00 is outside the range and there is no default")
}

func TestScheduler_Select_NarrowestMatchWins(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)

	// The whole-day window overlays the narrow lunch window
	baseDir := makeDirs(t, "mon-00:mon-23", "mon-11:mon-13", "default")

	dir, ok := s.Select(baseDir, weekTime(t, 0, 12))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "mon-11:mon-13"), dir,
		"the narrower window should win")

	dir, ok = s.Select(baseDir, weekTime(t, 0, 9))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "mon-00:mon-23"), dir)
}

func TestScheduler_Select_EqualDurationTieIsStable(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)

	// Both windows cover Monday 8:00-12:00 with the same duration.
	// The tie resolves to the lexicographically smaller name.
	baseDir := makeDirs(t, "mon-08:mon-12", "MON-8:MON-12")

	for i := 0; i < 10; i++ {
		dir, ok := s.Select(baseDir, weekTime(t, 0, 10))
		require.True(t, ok)
		assert.Equal(t, filepath.Join(baseDir, "MON-8:MON-12"), dir)
	}
}

func TestScheduler_Select_IgnoresInvalidEntries(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)
	baseDir := makeDirs(t, "not-a-range", "mon-24:mon-17", "mon-08:mon-17")

	// A plain file whose name parses must not be considered
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "mon-09:mon-11"), []byte("x"), 0o644))

	dir, ok := s.Select(baseDir, weekTime(t, 0, 10))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(baseDir, "mon-08:mon-17"), dir)
}

func TestScheduler_Select_ZeroLengthRangeNeverMatches(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)
	baseDir := makeDirs(t, "mon-10:mon-10")

	_, ok := s.Select(baseDir, weekTime(t, 0, 10))
	assert.False(t, ok)
}

func TestScheduler_Select_NoMatchNoDefault(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)
	baseDir := makeDirs(t, "mon-08:mon-17")

	_, ok := s.Select(baseDir, weekTime(t, 2, 10))
	assert.False(t, ok)
}

func TestScheduler_Select_MissingBaseDir(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewScheduler(logger)

	_, ok := s.Select(filepath.Join(t.TempDir(), "nope"), weekTime(t, 0, 10))
	assert.False(t, ok)
}
