// Package cmd contains the CLI entry points.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koopa0/scribe/internal/app"
	"github.com/koopa0/scribe/internal/config"
	"github.com/koopa0/scribe/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - Slack documentation assistant",
	Long: `Scribe is a Slack bot that answers questions about project documents,
edits them on request, and summarizes recent repository activity.

Running scribe with no arguments starts the bot.`,
	SilenceUsage: true,
	RunE:         runBot,
}

// Execute runs the root command. Designed to be called from main().
func Execute() error {
	return rootCmd.Execute()
}

func runBot(cmd *cobra.Command, _ []string) error {
	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := checkRequiredEnv(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	logger.Info("starting scribe", "version", AppVersion)
	return a.Run(ctx)
}

// initLogger builds the process logger. The DEBUG environment variable
// switches on debug-level output; LOG_JSON switches to JSON lines.
func initLogger() *slog.Logger {
	return log.New(log.Config{
		Level: logLevel(),
		JSON:  os.Getenv("LOG_JSON") != "",
	})
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// checkRequiredEnv verifies provider credentials that the config layer
// does not own. The Gemini key is read directly by the provider plugin.
func checkRequiredEnv(cfg *config.Config) error {
	if cfg.Provider == config.ProviderOllama {
		return nil
	}
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Scribe requires a Gemini API key for the default provider.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "To set your API key:")
	fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")

	return fmt.Errorf("GEMINI_API_KEY not set")
}
