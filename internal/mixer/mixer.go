// Package mixer mutes and unmutes an ALSA mixer control. It shells out to
// amixer, which is always present on the target installation, instead of
// talking to ALSA directly.
package mixer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const cardsFile = "/proc/asound/cards"

// Lines look like ` 0 [Headphones     ]: bcm2835_headphonesounds - bcm2835 Headphones`.
var cardLinePattern = regexp.MustCompile(`^\s*(\d+)\s+\[([^\]]*)\]:\s*(.*)$`)

// Mixer drives the mute switch of one ALSA mixer control. Mute and Unmute
// report success as a boolean; every underlying failure is logged and
// converted to false, never propagated.
type Mixer struct {
	control   string
	logger    *zap.Logger
	cardIndex int
	hasCard   bool
}

// NewMixer creates a Mixer bound to the first ALSA card whose name contains
// cardName. A missing card is not an error: the mixer is still returned and
// simply fails every mute/unmute call. cardName matching is done against
// /proc/asound/cards.
func NewMixer(cardName, control string, logger *zap.Logger) *Mixer {
	m := &Mixer{
		control: control,
		logger:  logger.Named("mixer"),
	}

	f, err := os.Open(cardsFile)
	if err != nil {
		m.logger.Warn("Cannot read ALSA card list", zap.Error(err))
		return m
	}
	defer f.Close()

	idx, ok := findCardIndex(f, cardName)
	if !ok {
		m.logger.Warn("No ALSA card found", zap.String("card_name", cardName))
		return m
	}

	m.cardIndex = idx
	m.hasCard = true
	m.logger.Info("Found ALSA card",
		zap.String("card_name", cardName),
		zap.Int("index", idx))
	return m
}

// CardIndex returns the resolved ALSA card index. The second return value
// is false when no matching card was found.
func (m *Mixer) CardIndex() (int, bool) {
	return m.cardIndex, m.hasCard
}

// Mute mutes the mixer control, returning true on success
func (m *Mixer) Mute() bool {
	return m.set("mute")
}

// Unmute unmutes the mixer control, returning true on success
func (m *Mixer) Unmute() bool {
	return m.set("unmute")
}

func (m *Mixer) set(action string) bool {
	if !m.hasCard {
		return false
	}

	cmd := exec.Command("amixer", "-q", "-c", strconv.Itoa(m.cardIndex),
		"set", m.control, action)
	if out, err := cmd.CombinedOutput(); err != nil {
		m.logger.Error("amixer failed",
			zap.String("action", action),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err))
		return false
	}

	m.logger.Info(fmt.Sprintf("Mixer %sd", action))
	return true
}

// findCardIndex scans a /proc/asound/cards listing for the first card whose
// line contains name.
func findCardIndex(r io.Reader, name string) (int, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		match := cardLinePattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}

		if !strings.Contains(match[2], name) && !strings.Contains(match[3], name) {
			continue
		}

		idx, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return idx, true
	}
	return 0, false
}
