package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ForceGold/internal/config"
)

func main() {
	// Create context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	setupSignalHandling(cancel)

	if err := newRootCmd(ctx).Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		cancel()
		os.Exit(1)
	}
}

// setupSignalHandling cancels ctx on SIGINT/SIGTERM so in-flight fetches stop
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, cancelling...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Provider", cfg.Provider).
		Str("BaseSymbol", cfg.BaseSymbol).
		Str("CorrelationSymbol", cfg.CorrelationSymbol).
		Strs("CorrelationVariants", cfg.CorrelationVariants).
		Strs("QuotePairs", cfg.QuotePairs).
		Str("Interval", cfg.Interval).
		Int("LookbackDays", cfg.LookbackDays).
		Int("MinDataPoints", cfg.MinDataPoints).
		Float64("MaxInvalidFraction", cfg.MaxInvalidFraction).
		Int("EMAPeriod", cfg.EMAPeriod).
		Float64("ScalingFactor", cfg.ScalingFactor).
		Bool("Cache", cfg.RedisAddr != "").
		Bool("Database", cfg.DBHost != "").
		Bool("Telegram", cfg.TelegramBotToken != "").
		Msg("Configuration loaded")
}
