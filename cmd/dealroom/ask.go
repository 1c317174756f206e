package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agent"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/spf13/cobra"
)

var askTimeout time.Duration

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Ask a single question about the selected deal.

Examples:
  dealroom ask "What is the revenue?" --deal deal-1
  dealroom ask "Compare EBITDA between 2022 and 2023" -d deal-1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "Overall timeout for the question")
}

func runAsk(parent context.Context, query string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, askTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("%s %s\n", headerStyle.Render("Question:"), query)
	if dealID == "" {
		fmt.Println(warnStyle.Render("No deal selected, answering without retrieval"))
	}

	res, err := runTurn(ctx, a.pipeline, agent.Request{
		Messages: []types.Message{{Role: types.RoleUser, Content: query}},
		DealID:   dealID,
	}, logger)
	if err != nil {
		renderError(os.Stdout, err)
		return err
	}
	renderResult(os.Stdout, res)
	return nil
}
