package main

import (
	"fmt"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/spf13/cobra"
)

var specialistsCmd = &cobra.Command{
	Use:   "specialists",
	Short: "List the specialists questions can be delegated to",
	Run: func(cmd *cobra.Command, args []string) {
		runSpecialists()
	},
}

func runSpecialists() {
	toolStyle := warnStyle.Bold(true)

	fmt.Println(headerStyle.Render("Available Specialists"))
	fmt.Println()

	for _, def := range specialist.Toolset() {
		fmt.Printf("  %s\n", toolStyle.Render("◆ "+string(def.Name)))
		fmt.Printf("    %s\n", dimStyle.Render(def.Description))

		if verbose {
			for _, p := range def.Parameters {
				req := ""
				if p.Required {
					req = " (required)"
				}
				fmt.Printf("      %s%s\n", infoStyle.Render(p.Name), req)
				fmt.Printf("        %s\n", dimStyle.Render(p.Description))
			}
		}
		fmt.Println()
	}

	if !verbose {
		fmt.Println(dimStyle.Render("  Use --verbose for parameter details"))
	}
}
