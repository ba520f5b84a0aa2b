package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimestat/internal/config"
)

var (
	cfg       *config.Config
	rulesPath string
)

var rootCmd = &cobra.Command{
	Use:   "crimestat",
	Short: "Crime incident classification and aggregation",
	Long:  "Validates and classifies Mexico City investigation-case records, aggregates frequency statistics, and exports the classified subset for risk mapping.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "classification rule file (default from config, built-in rules if unset)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
