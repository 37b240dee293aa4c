package mute

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"
)

// Switch is an edge-notified door switch line. Level reports the current
// state (true = open). Implementations must make WaitEvent return within
// the given timeout so the polling loop can observe shutdown.
type Switch interface {
	// WaitEvent blocks until an edge event is pending or the timeout
	// elapses, reporting whether an event arrived.
	WaitEvent(timeout time.Duration) bool

	// Drain discards all pending edge events
	Drain()

	// Level reads the current line level; true means the door is open
	Level() (bool, error)

	// Close releases the underlying line
	Close() error
}

// GPIOSwitch is a Switch backed by a Linux GPIO character device. The line
// is requested with pull-up bias and both-edge detection: the door switch
// shorts it to ground when closed, so low means closed and high means open.
type GPIOSwitch struct {
	line   *gpiocdev.Line
	events chan gpiocdev.LineEvent
	logger *zap.Logger
}

// RequestGPIOSwitch requests the given line of chip (a name like
// `gpiochip0` or a full /dev path) for edge monitoring.
func RequestGPIOSwitch(chip string, pin int, logger *zap.Logger) (*GPIOSwitch, error) {
	s := &GPIOSwitch{
		// Buffered so a contact-bounce burst between two Drain calls
		// cannot block the kernel event goroutine.
		events: make(chan gpiocdev.LineEvent, 64),
		logger: logger.Named("gpio"),
	}

	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request line %d on %s: %w", pin, chip, err)
	}

	s.line = line
	s.logger.Info("GPIO switch line requested",
		zap.String("chip", chip),
		zap.Int("pin", pin))
	return s, nil
}

func (s *GPIOSwitch) handleEvent(evt gpiocdev.LineEvent) {
	select {
	case s.events <- evt:
	default:
		// The consumer drains in bulk; dropping a bounce event here
		// loses nothing.
	}
}

// WaitEvent blocks until an edge event is pending or the timeout elapses
func (s *GPIOSwitch) WaitEvent(timeout time.Duration) bool {
	select {
	case evt := <-s.events:
		s.logger.Debug("Edge event", zap.Any("type", evt.Type))
		return true
	case <-time.After(timeout):
		return false
	}
}

// Drain discards all pending edge events
func (s *GPIOSwitch) Drain() {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

// Level reads the current line level; true means the door is open
func (s *GPIOSwitch) Level() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line value: %w", err)
	}
	return v != 0, nil
}

// Close releases the underlying line
func (s *GPIOSwitch) Close() error {
	return s.line.Close()
}
