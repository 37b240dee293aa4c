package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPlayer_IdleOperationsAreSafe(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	p := NewPlayer("default", logger)

	// Nothing is playing: all of these must return without blocking.
	p.Stop()
	p.Terminate()
	p.Wait()
	p.Stop()
}

func TestPlayer_PlayMissingBinaryOrFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	p := NewPlayer("default", logger)

	// Either mpg123 is absent (start fails) or it exits at once on a
	// nonexistent file; both are handled. A start failure must leave the
	// player idle.
	if !p.Play("/nonexistent/track.mp3") {
		p.Wait() // must not block after a failed start
		return
	}

	p.Wait()
	p.Stop()
	assert.Nil(t, p.cmd)
}
