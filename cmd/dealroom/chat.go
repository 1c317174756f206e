package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agent"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/transcript"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/spf13/cobra"
)

var maxTurns int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive question session for one deal.

Commands inside the session:
  /clear   forget the conversation so far
  /deal ID switch to another deal
  exit     quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runChat(ctx)
	},
}

func init() {
	chatCmd.Flags().IntVar(&maxTurns, "history", 20, "Messages kept in the conversation")
}

func runChat(ctx context.Context) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	history := transcript.NewManager(maxTurns)
	currentDeal := dealID

	fmt.Println(headerStyle.Render("Data Room assistant"))
	fmt.Println(dimStyle.Render("Type your question, /clear, /deal ID or exit"))
	if currentDeal == "" {
		fmt.Println(warnStyle.Render("No deal selected, retrieval is disabled until /deal is used"))
	}
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(infoStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			fmt.Println("Goodbye!")
			return nil
		case line == "/clear":
			history.Clear()
			fmt.Println(successStyle.Render("Conversation cleared"))
			continue
		case strings.HasPrefix(line, "/deal"):
			currentDeal = strings.TrimSpace(strings.TrimPrefix(line, "/deal"))
			history.Clear()
			fmt.Println(successStyle.Render("Deal set to " + currentDeal))
			continue
		}

		history.AddUser(line)
		res, err := runTurn(ctx, a.pipeline, agent.Request{
			Messages: history.GetMessages(),
			DealID:   currentDeal,
		}, logger)
		if err != nil {
			renderError(os.Stdout, err)
			fmt.Println()
			continue
		}

		renderResult(os.Stdout, res)
		fmt.Println()
		switch {
		case res.Response != nil:
			history.AddMessage(*res.Response)
		case res.Delegation != nil:
			history.AddMessage(types.Message{
				Role:    types.RoleAssistant,
				Content: "Delegated to " + string(res.Delegation.Specialist) + ".",
			})
		}
	}
	return scanner.Err()
}
