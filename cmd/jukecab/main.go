package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jukecab/internal/clock"
	"jukecab/internal/config"
	"jukecab/internal/mixer"
	"jukecab/internal/mute"
	"jukecab/internal/playback"
	"jukecab/internal/player"
	"jukecab/internal/sched"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// playRetryDelay is the pause before retrying after a failed playback start.
const playRetryDelay = 2 * time.Second

var (
	flagConfig string
	flagDevLog bool
)

var rootCmd = &cobra.Command{
	Use:   "jukecab",
	Short: "Cabinet audio controller",
	Long: "jukecab plays MP3 tracks out of time-scheduled directories and mutes\n" +
		"the output unless the cabinet door is open.",
}

var playCmd = &cobra.Command{
	Use:   "play <base-dir>",
	Short: "Run the player against a base directory",
	Long: "Run the player. The base directory contains subdirectories named\n" +
		"after weekly time ranges (for example `mon-8:mon-17`) plus an optional\n" +
		"`default` fallback, each holding MP3 files.",
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagDevLog, "dev-log", false,
		"use human-readable development logging")

	flags := playCmd.Flags()
	flags.String("alsa-card", "", "ALSA card name substring")
	flags.String("alsa-mixer", "", "ALSA mixer control name")
	flags.String("gpio-chip", "", "GPIO chip name or /dev path")
	flags.Int("gpio-pin", 0, "GPIO line of the door switch")
	flags.Duration("switch-debounce", 0, "switch settle delay")
	flags.Duration("door-debounce", 0, "unmute lockout after a mute")
	flags.Duration("auto-mute-delay", 0, "unmuted time before a forced mute")
	flags.Duration("poll-interval", 0, "schedule poll interval when idle")

	rootCmd.AddCommand(playCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagDevLog {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig merges defaults, the config file, the environment and any
// explicitly set command-line flags.
func loadConfig(cmd *cobra.Command, logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(flagConfig, logger)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("alsa-card") {
		cfg.ALSACard, _ = flags.GetString("alsa-card")
	}
	if flags.Changed("alsa-mixer") {
		cfg.ALSAMixer, _ = flags.GetString("alsa-mixer")
	}
	if flags.Changed("gpio-chip") {
		cfg.GPIOChip, _ = flags.GetString("gpio-chip")
	}
	if flags.Changed("gpio-pin") {
		pin, _ := flags.GetInt("gpio-pin")
		cfg.GPIOPin = pin
	}
	durationFlags := []struct {
		name   string
		target *config.Duration
	}{
		{"switch-debounce", &cfg.SwitchDebounce},
		{"door-debounce", &cfg.DoorDebounce},
		{"auto-mute-delay", &cfg.AutoMuteDelay},
		{"poll-interval", &cfg.PollInterval},
	}
	for _, df := range durationFlags {
		if flags.Changed(df.name) {
			d, _ := flags.GetDuration(df.name)
			*df.target = config.Duration(d)
		}
	}

	return cfg, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	// Flag/config errors after this point are logged, not usage errors
	cmd.SilenceUsage = true

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	baseDir := args[0]
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return fmt.Errorf("base directory %s is not a directory", baseDir)
	}

	logger.Info("Starting jukecab",
		zap.String("base_dir", baseDir),
		zap.String("alsa_card", cfg.ALSACard),
		zap.String("gpio_chip", cfg.GPIOChip),
		zap.Int("gpio_pin", cfg.GPIOPin))

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mix := mixer.NewMixer(cfg.ALSACard, cfg.ALSAMixer, logger)

	// Play through the card that carries the mute control when we found
	// one, otherwise let ALSA pick.
	device := "default"
	if idx, ok := mix.CardIndex(); ok {
		device = fmt.Sprintf("hw:%d,0", idx)
	}

	muteCtrl := mute.NewController(mix,
		func() (mute.Switch, error) {
			return mute.RequestGPIOSwitch(cfg.GPIOChip, cfg.GPIOPin, logger)
		},
		mute.Config{
			SwitchDebounce: cfg.SwitchDebounce.Std(),
			DoorDebounce:   cfg.DoorDebounce.Std(),
			AutoMuteDelay:  cfg.AutoMuteDelay.Std(),
		},
		clock.NewRealClock(), logger)

	ply := player.NewPlayer(device, logger)
	selector := playback.NewSelector(baseDir, sched.NewScheduler(logger), logger)

	if err := muteCtrl.Start(); err != nil {
		return fmt.Errorf("start mute controller: %w", err)
	}

	// Unblock Wait when a shutdown signal arrives mid-track
	go func() {
		<-ctx.Done()
		ply.Terminate()
	}()

	runLoop(ctx, cfg, logger, selector, ply)

	logger.Info("Shutting down...")
	ply.Stop()
	muteCtrl.Stop()
	return nil
}

// runLoop picks and plays tracks until ctx is cancelled. When nothing is
// scheduled it stops playback and polls again after the configured
// interval.
func runLoop(ctx context.Context, cfg *config.Config, logger *zap.Logger,
	selector *playback.Selector, ply *player.Player) {
	for ctx.Err() == nil {
		path, ok := selector.SelectNext(time.Now())
		if !ok {
			ply.Stop()
			sleepCtx(ctx, cfg.PollInterval.Std())
			continue
		}

		if !ply.Play(path) {
			logger.Error("Failed to start playback; retrying",
				zap.String("path", path),
				zap.Duration("delay", playRetryDelay))
			sleepCtx(ctx, playRetryDelay)
			continue
		}

		ply.Wait()
	}
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
