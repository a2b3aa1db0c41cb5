package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/suidash/backend/internal/app"
	"github.com/suidash/backend/pkg/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dashboard backend server",
	Long: `Start the HTTP server exposing the dashboard API, Prometheus
metrics, health probes, and the live refresh feed. Configuration comes from
the environment (a .env file is loaded when present).`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
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

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	return application.Run()
}
