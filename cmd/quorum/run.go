package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/config"
	"github.com/quorumlabs/quorum/internal/domain"
	"github.com/quorumlabs/quorum/internal/service"
	"github.com/quorumlabs/quorum/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <question>",
	Short: "Run one research question end to end",
	Long: `Run a full research cycle for a question and print the scored evidence.

Examples:
  quorum run "what is known about deep-sea mining impacts?"
  quorum run "state of solid-state battery manufacturing" --mode deep --trace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeName, _ := cmd.Flags().GetString("mode")
		showTrace, _ := cmd.Flags().GetBool("trace")
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runResearch(args[0], modeName, showTrace, verbose)
	},
}

func init() {
	runCmd.Flags().String("mode", "standard", "Run mode: quick, standard, or deep")
	runCmd.Flags().Bool("trace", false, "Print the run's audit trail")
	runCmd.Flags().Bool("verbose", false, "Log internals to stderr while running")
}

func runResearch(question, modeName string, showTrace, verbose bool) error {
	if err := config.Load(); err != nil {
		return err
	}

	mode, err := config.ModeConfig(modeName)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
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
	if err := evidenceStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	held, err := evidenceStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("evidence store consistency check: %w", err)
	}

	svc, err := service.Bootstrap(pool, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Researching (%s mode, %d records in memory): %s\n\n", mode.Name, held, question)

	result, err := svc.Run(ctx, question, mode.Rounds, mode.QueriesPerRound)
	if err != nil {
		return err
	}

	printResult(result)
	if showTrace {
		fmt.Println("\nTrace:")
		for _, ev := range result.Trace {
			fmt.Printf("%s [%s] %s", ev.At.Format(time.RFC3339), ev.Kind, ev.Message)
			if len(ev.Fields) > 0 {
				fmt.Printf(" %v", ev.Fields)
			}
			fmt.Println()
		}
	}
	return nil
}

func printResult(result *domain.RunResult) {
	fmt.Printf("Goal: %s\n", result.Plan.Goal)
	fmt.Printf("Dimensions: %v\n\n", result.Plan.Dimensions)

	records := make([]*domain.EvidenceRecord, len(result.Records))
	copy(records, result.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalScore > records[j].TotalScore
	})

	fmt.Printf("Evidence (%d records):\n", len(records))
	for _, rec := range records {
		fmt.Printf("  [%s] total=%d (credibility=%d agreement=%d) %s\n",
			rec.ID, rec.TotalScore, rec.CredibilityScore, rec.AgreementScore, rec.URL)
		fmt.Printf("      by %s via %s, retrieved %s\n", rec.AuthorName(), rec.SourceName(), rec.RetrievedDate)
		fmt.Printf("      %s\n", rec.Summary)
	}

	if len(result.Removals) > 0 {
		fmt.Println("\nConflict resolution:")
		for id, claims := range result.Removals {
			fmt.Printf("  %s lost %d claim(s): %v\n", id, len(claims), claims)
		}
	}
}
