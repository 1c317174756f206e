package main

import (
	"fmt"
	"os"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	dealID     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dealroom",
	Short: "Deal room question answering orchestrator",
	Long: `dealroom answers questions about an M&A data room.

Each question is classified, evidence is retrieved for the selected deal,
confidence is derived from the evidence and the answer is either written
directly or delegated to a specialist.

Usage:
  dealroom ask "What was EBITDA in 2023?" --deal deal-1
  dealroom chat --deal deal-1
  dealroom serve
  dealroom specialists
  dealroom config show
  dealroom cache invalidate deal-1`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadFromPaths("config.local.yaml", "config.yaml")
		}
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Warning: could not load config: %v", err)))
			cfg = config.DefaultConfig()
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&dealID, "deal", "d", "", "Deal the questions are scoped to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(specialistsCmd)
	rootCmd.AddCommand(versionCmd)
}
