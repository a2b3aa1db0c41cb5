package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/suidash/backend/internal/app"
	"github.com/suidash/backend/pkg/config"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <address> [address...]",
	Short: "Enrich addresses once and print the result",
	Long: `One-shot enrichment: fetch balance, membership, and tier data for
the given addresses and print the result as JSON. Uses the same fetch and
cache machinery as the server, starting from a cold cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnrich,
}

var (
	enrichIncludeBalance bool
	enrichTimeout        time.Duration
)

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().BoolVarP(&enrichIncludeBalance, "balance", "b", true, "Include balances")
	enrichCmd.Flags().DurationVarP(&enrichTimeout, "timeout", "t", 60*time.Second, "Overall timeout")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	enr, err := app.BuildEnrichment(cfg, logger)
	if err != nil {
		return fmt.Errorf("build enrichment: %w", err)
	}
	defer func() { _ = enr.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	enriched, err := enr.Service.GetAddressesEnriched(ctx, args, enrichIncludeBalance)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", strings.Join(args, ","), err)
	}

	out, err := json.MarshalIndent(enriched, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
