// Package player wraps an mpg123 subprocess for MP3 playback.
package player

import (
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// stopTimeout bounds how long Stop waits after SIGTERM before killing.
const stopTimeout = 2 * time.Second

// Player runs one mpg123 process at a time against a fixed ALSA device.
// The orchestration loop is its only caller apart from the signal handler,
// which may call Terminate concurrently.
type Player struct {
	device string
	logger *zap.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewPlayer creates a Player that plays through the given ALSA device
// (for example `hw:1,0`).
func NewPlayer(device string, logger *zap.Logger) *Player {
	return &Player{
		device: device,
		logger: logger.Named("player"),
	}
}

// Play starts playing the MP3 file at path, stopping any current playback
// first. It returns true if the process started.
func (p *Player) Play(path string) bool {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("Starting mpg123",
		zap.String("file", filepath.Base(path)),
		zap.String("device", p.device))

	cmd := exec.Command("mpg123", "-q", "-a", p.device, path)
	if err := cmd.Start(); err != nil {
		p.logger.Error("Failed to start mpg123", zap.Error(err))
		return false
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	p.cmd = cmd
	p.done = done
	return true
}

// Wait blocks until the current track finishes naturally. It returns
// immediately if nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Terminate asks the current process to exit without waiting for it.
// Safe to call from a signal handler while another goroutine is in Wait.
func (p *Player) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return
	}

	p.logger.Info("Terminating mpg123")
	p.cmd.Process.Signal(syscall.SIGTERM)
}

// Stop terminates the current process and waits for it to be gone,
// escalating to SIGKILL after a timeout. Idempotent.
func (p *Player) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	done := p.done
	p.cmd = nil
	p.done = nil
	p.mu.Unlock()

	if cmd == nil {
		return
	}

	p.logger.Info("Stopping mpg123")
	cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-done:
	case <-time.After(stopTimeout):
		p.logger.Warn("mpg123 did not exit in time; killing it")
		cmd.Process.Kill()
		<-done
	}
}
