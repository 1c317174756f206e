package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information - set at build time
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	fmt.Println(headerStyle.Render("dealroom"))
	fmt.Println()
	fmt.Printf("%s %s\n", dimStyle.Render("Version:"), valueStyle.Render(Version))
	fmt.Printf("%s %s\n", dimStyle.Render("Commit:"), valueStyle.Render(GitCommit))
	fmt.Printf("%s %s\n", dimStyle.Render("Built:"), valueStyle.Render(BuildDate))
}
