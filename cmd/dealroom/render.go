package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agent"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(22)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
)

type turnRunner interface {
	Run(ctx context.Context, req agent.Request) (*agent.Result, error)
}

// runTurn runs one turn and retries once when the failure is recoverable.
func runTurn(ctx context.Context, r turnRunner, req agent.Request, logger *zap.Logger) (*agent.Result, error) {
	res, err := r.Run(ctx, req)
	if err == nil || !agenterr.IsRecoverable(err) || ctx.Err() != nil {
		return res, err
	}
	logger.Warn("Recoverable error, retrying turn once", zap.Error(err))
	return r.Run(ctx, req)
}

func renderResult(w io.Writer, res *agent.Result) {
	if res == nil {
		return
	}
	if res.Outcome == types.OutcomeNone {
		fmt.Fprintln(w, dimStyle.Render("Nothing to answer."))
		return
	}

	fmt.Fprintf(w, "%s %s / %s  %s %s\n",
		infoStyle.Render("Classified:"),
		res.Classification.Complexity,
		res.Classification.Intent,
		infoStyle.Render("Uncertainty:"),
		res.Uncertainty.Level)

	switch res.Outcome {
	case types.OutcomeDirectAnswer:
		fmt.Fprintln(w)
		if res.Response != nil {
			fmt.Fprintln(w, res.Response.Content)
		}
	case types.OutcomeDelegated:
		if res.Delegation != nil {
			fmt.Fprintf(w, "\n%s %s\n", successStyle.Render("Delegated to"), headerStyle.Render(string(res.Delegation.Specialist)))
			if len(res.Delegation.Arguments) > 0 {
				fmt.Fprintln(w, dimStyle.Render(string(res.Delegation.Arguments)))
			}
		}
	}

	if len(res.Citations) > 0 {
		fmt.Fprintln(w, "\n"+headerStyle.Render("Sources:"))
		for i, c := range res.Citations {
			source := c.DocumentName
			if c.Location != "" {
				source += ", " + c.Location
			}
			fmt.Fprintf(w, "  [%d] %s %s\n", i+1, source, dimStyle.Render(fmt.Sprintf("(%.2f)", c.RelevanceScore)))
			fmt.Fprintf(w, "      %s\n", dimStyle.Render(truncateContent(c.Snippet, 120)))
		}
	}

	for _, f := range res.Findings {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  ! %s: %q", f.Rule, f.Match)))
	}
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render(agenterr.UserMessage(err)))
}

func truncateContent(content string, maxLen int) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) <= maxLen {
		return string(r)
	}
	return string(r[:maxLen]) + "..."
}
