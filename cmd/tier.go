package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/suidash/backend/internal/app"
	"github.com/suidash/backend/pkg/config"
)

var tierCmd = &cobra.Command{
	Use:   "tier <address> [address...]",
	Short: "Look up activity tiers for addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTier,
}

var tierTimeout time.Duration

func init() {
	rootCmd.AddCommand(tierCmd)

	tierCmd.Flags().DurationVarP(&tierTimeout, "timeout", "t", 60*time.Second, "Overall timeout")
}

func runTier(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), tierTimeout)
	defer cancel()

	tiers, err := enr.Service.GetTierInfoBatch(ctx, args)
	if err != nil {
		return fmt.Errorf("tier lookup: %w", err)
	}

	out, err := json.MarshalIndent(tiers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
