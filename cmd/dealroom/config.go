package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or initialize configuration",
	Long: `View or initialize dealroom configuration.

Configuration is read from ./config.local.yaml, ./config.yaml or
~/.dealroom/config.yaml and can be overridden with DEALROOM_* environment
variables, for example DEALROOM_LLM_ENDPOINT.

Examples:
  dealroom config show
  dealroom config init`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		printConfig(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve home directory: %w", err)
			}
			path = filepath.Join(home, ".dealroom", "config.yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Configuration written to " + path))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func printConfig(c *config.Config) {
	fmt.Println(headerStyle.Render("dealroom Configuration"))
	fmt.Println()

	row := func(k, v string) {
		fmt.Printf("%s %s\n", keyStyle.Render(k), valueStyle.Render(v))
	}
	row("Mode:", c.Mode)
	row("LLM provider:", c.LLM.Provider)
	row("LLM endpoint:", c.LLM.Endpoint)
	row("LLM model:", c.LLM.Model)
	row("Retry attempts:", fmt.Sprintf("%d", c.LLM.RetryAttempts))
	row("Retrieval backend:", c.Retrieval.Backend)
	switch c.Retrieval.Backend {
	case "qdrant":
		row("Qdrant:", fmt.Sprintf("%s:%d/%s", c.Retrieval.Qdrant.Host, c.Retrieval.Qdrant.Port, c.Retrieval.Qdrant.Collection))
		row("Embeddings:", c.Retrieval.Embedding.Endpoint)
	default:
		row("Retrieval endpoint:", c.Retrieval.Endpoint)
	}
	row("Slow threshold:", c.Retrieval.SlowThreshold.String())

	deals := fmt.Sprintf("static (%d)", len(c.Deals.Static))
	if c.Deals.PostgresDSN != "" {
		deals = "postgres"
	}
	if c.Deals.RedisAddr != "" {
		deals += " + redis " + c.Deals.RedisAddr
	}
	row("Deals:", deals)
	row("Server address:", c.Server.Addr)

	if c.LLM.APIKey != "" || c.Retrieval.APIKey != "" {
		fmt.Println()
		fmt.Println(dimStyle.Render("API keys are set and not shown"))
	}
}
