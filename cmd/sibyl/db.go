package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/sibyl/internal/config"
	"github.com/MikeSquared-Agency/sibyl/internal/seed"
	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

var seedDeck string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		slog.Info("schema up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the questionnaire deck and reading prompt",
	Long: `Load a questionnaire deck into the database, replacing the deck's
category and prompt. Without --deck the built-in turning-of-the-year deck is
used. The schema is migrated first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deck, err := loadDeck(seedDeck)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		return seed.Seed(cmd.Context(), db, deck, slog.Default())
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDeck, "deck", "", "Path to a deck YAML file (defaults to the built-in deck)")
}

func loadDeck(path string) (*seed.Deck, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return seed.Load(data)
}

func openStore(ctx context.Context) (*store.Store, error) {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return store.New(ctx, cfg.DatabaseURL)
}
