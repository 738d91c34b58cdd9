package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/app"
	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagPolling bool
	flagFeeds   string
)

var rootCmd = &cobra.Command{
	Use:           "cryptonews",
	Short:         "Bilingual crypto news Telegram bot",
	Long:          "cryptonews serves crypto headlines, AI commentary, prices and charts to Telegram users in Persian or English.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cryptonews %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagPolling, "polling", false, "use long polling instead of the webhook server")
	rootCmd.Flags().StringVar(&flagFeeds, "feeds", "", "path to feeds.yaml (overrides FEEDS_CONFIG_PATH)")
	rootCmd.AddCommand(versionCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if flagFeeds != "" {
		cfg.FeedsConfigPath = flagFeeds
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Str("version", version).Str("mode", cfg.BotMode).Bool("polling_flag", flagPolling).Msg("Starting cryptonews")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, log, flagPolling); err != nil {
		log.Error().Err(err).Msg("Bot stopped with error")
		return err
	}
	log.Info().Msg("Shutdown complete")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
