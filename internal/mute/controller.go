// Package mute keeps the installation's audio output muted unless the
// cabinet door is open, and re-mutes it after a period of inactivity.
package mute

import (
	"sync"
	"time"

	"jukecab/internal/clock"

	"go.uber.org/zap"
)

// Actuator performs the actual mute/unmute calls on the audio output.
// Both calls report success as a boolean and must never panic.
type Actuator interface {
	Mute() bool
	Unmute() bool
}

// switchPollTimeout bounds each wait for edge events so the switch loop
// notices shutdown promptly.
const switchPollTimeout = 500 * time.Millisecond

// loopJoinTimeout bounds how long Stop waits for each loop to exit.
const loopJoinTimeout = 2 * time.Second

// Config holds the mute controller timings.
type Config struct {
	// SwitchDebounce is how long to let switch contact bounce settle
	// before reading the stable level
	SwitchDebounce time.Duration

	// DoorDebounce is the lockout after a mute during which unmute
	// requests are ignored (the door itself may bounce back open)
	DoorDebounce time.Duration

	// AutoMuteDelay is how long the output may stay unmuted before the
	// controller forces a mute
	AutoMuteDelay time.Duration
}

// Controller is a concurrent state machine around one mute flag. A switch
// loop debounces door events and an independent auto-mute loop enforces
// the inactivity timeout; both drive the actuator through one lock so no
// two actuator calls ever race. The fail-safe state is muted: that is the
// initial state and the state the controller falls back to when the switch
// hardware cannot be acquired.
type Controller struct {
	actuator   Actuator
	openSwitch func() (Switch, error)
	cfg        Config
	clk        clock.Clock
	logger     *zap.Logger

	// mu guards everything below it
	mu             sync.Mutex
	isMuted        bool
	lastMuteTime   time.Time
	lastUnmuteTime time.Time
	lastLevel      bool
	haveLevel      bool

	runMu         sync.Mutex
	running       bool
	sw            Switch
	stopChan      chan struct{}
	switchStopped chan struct{}
	autoStopped   chan struct{}
}

// NewController creates a mute controller. openSwitch is called during
// Start to acquire the door switch; it may be nil for installations
// without one, in which case only the auto-mute loop runs.
func NewController(actuator Actuator, openSwitch func() (Switch, error),
	cfg Config, clk clock.Clock, logger *zap.Logger) *Controller {
	return &Controller{
		actuator:   actuator,
		openSwitch: openSwitch,
		cfg:        cfg,
		clk:        clk,
		logger:     logger.Named("mute"),
		isMuted:    true,
	}
}

// IsMuted returns the current mute state (thread-safe)
func (c *Controller) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isMuted
}

// Start acquires the switch and launches the background loops. Failure to
// acquire the switch is not fatal: the controller stays muted and only the
// auto-mute loop runs. Calling Start on a running controller does nothing.
func (c *Controller) Start() error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.running {
		return nil
	}
	c.running = true
	c.stopChan = make(chan struct{})

	// Always start muted
	c.mu.Lock()
	c.isMuted = true
	c.lastMuteTime = c.clk.Now()
	c.mu.Unlock()
	if !c.actuator.Mute() {
		c.logger.Warn("Initial mute failed; output may be audible until the next transition")
	}

	if c.openSwitch != nil {
		sw, err := c.openSwitch()
		if err != nil {
			c.logger.Warn("Switch unavailable; staying muted", zap.Error(err))
		} else {
			c.sw = sw
			c.switchStopped = make(chan struct{})
			c.logger.Info("Starting switch polling loop")
			go c.switchLoop(sw, c.stopChan, c.switchStopped)
		}
	}

	c.autoStopped = make(chan struct{})
	c.logger.Info("Starting auto-mute loop",
		zap.Duration("delay", c.cfg.AutoMuteDelay))
	go c.autoMuteLoop(c.stopChan, c.autoStopped)

	return nil
}

// Stop halts both loops, joining each with a bounded timeout, and releases
// the switch regardless of join outcome. Safe to call more than once and
// concurrently with in-flight transitions.
func (c *Controller) Stop() {
	c.runMu.Lock()
	if !c.running {
		c.runMu.Unlock()
		return
	}
	c.running = false
	close(c.stopChan)
	sw := c.sw
	switchStopped := c.switchStopped
	autoStopped := c.autoStopped
	c.sw = nil
	c.switchStopped = nil
	c.autoStopped = nil
	c.runMu.Unlock()

	c.joinLoop(switchStopped, "switch")
	c.joinLoop(autoStopped, "auto-mute")

	if sw != nil {
		if err := sw.Close(); err != nil {
			c.logger.Warn("Failed to release switch", zap.Error(err))
		}
	}

	c.logger.Info("Mute controller stopped")
}

func (c *Controller) joinLoop(stopped chan struct{}, name string) {
	if stopped == nil {
		return
	}

	select {
	case <-stopped:
	case <-time.After(loopJoinTimeout):
		c.logger.Warn("Loop did not stop in time", zap.String("loop", name))
	}
}

// switchLoop waits for door switch edges, lets contact bounce settle, then
// acts on one authoritative level reading. Events that arrive during the
// settle sleep are drained too, so a bounce burst collapses into a single
// reading.
func (c *Controller) switchLoop(sw Switch, stopChan, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-stopChan:
			return
		default:
		}

		if !sw.WaitEvent(switchPollTimeout) {
			continue
		}

		sw.Drain()
		c.clk.Sleep(c.cfg.SwitchDebounce)
		sw.Drain()

		level, err := sw.Level()
		if err != nil {
			c.logger.Error("Failed to read switch level", zap.Error(err))
			continue
		}

		c.logger.Info("Stable switch level", zap.Bool("open", level))
		c.handleStableLevel(level)
	}
}

// handleStableLevel drives a transition from one debounced reading.
// A reading equal to the last stable one is spurious and ignored. The
// reading is only recorded once the transition it requests has been
// resolved, so a transition refused by the lockout or a failed actuator
// call is retried on the next event.
func (c *Controller) handleStableLevel(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.haveLevel && c.lastLevel == open {
		return
	}

	var settled bool
	if open {
		settled = c.unmuteLocked()
	} else {
		settled = c.muteLocked()
	}

	if settled {
		c.lastLevel = open
		c.haveLevel = true
	}
}

// muteLocked attempts a mute transition. It returns true when the state
// matches the request afterwards: already muted, or actuator success.
// Callers must hold c.mu.
func (c *Controller) muteLocked() bool {
	if c.isMuted {
		return true
	}

	c.logger.Info("Muting...")
	if !c.actuator.Mute() {
		c.logger.Error("Mute failed; staying unmuted")
		return false
	}

	c.isMuted = true
	c.lastMuteTime = c.clk.Now()
	return true
}

// unmuteLocked attempts an unmute transition, refusing it during the door
// lockout window. Callers must hold c.mu.
func (c *Controller) unmuteLocked() bool {
	if !c.isMuted {
		return true
	}

	// The cabinet door itself (not the switch) may bounce back when
	// closed: ignore unmute requests too soon after a mute.
	if c.clk.Since(c.lastMuteTime) < c.cfg.DoorDebounce {
		c.logger.Info("Ignoring unmute (lockout)")
		return false
	}

	c.logger.Info("Unmuting...")
	if !c.actuator.Unmute() {
		c.logger.Error("Unmute failed; staying muted")
		return false
	}

	c.isMuted = false
	c.lastUnmuteTime = c.clk.Now()
	return true
}

// autoMuteLoop wakes once per second and forces a mute once the output has
// been unmuted for the configured delay. A failed actuator call is retried
// on the next wake.
func (c *Controller) autoMuteLoop(stopChan, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-stopChan:
			return
		case <-c.clk.After(time.Second):
		}

		c.mu.Lock()
		if !c.isMuted && c.clk.Since(c.lastUnmuteTime) >= c.cfg.AutoMuteDelay {
			c.logger.Info("Auto-mute triggered",
				zap.Duration("delay", c.cfg.AutoMuteDelay))
			if c.actuator.Mute() {
				c.isMuted = true
				c.lastMuteTime = c.clk.Now()
			} else {
				c.logger.Error("Auto-mute failed; retrying on next tick")
			}
		}
		c.mu.Unlock()
	}
}
