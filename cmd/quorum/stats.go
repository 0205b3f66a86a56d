package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/quorumlabs/quorum/internal/config"
	"github.com/quorumlabs/quorum/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the persistent evidence memory size",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

func runStats() error {
	if err := config.Load(); err != nil {
		return err
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	evidenceStore := store.NewEvidenceStore(pool, config.EmbeddingDim())
	count, err := evidenceStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("evidence store consistency check: %w", err)
	}

	fmt.Printf("Evidence memory holds %d records.\n", count)
	return nil
}
