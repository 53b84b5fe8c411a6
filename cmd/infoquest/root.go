package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "infoquest",
	Short: "Deep research orchestrator",
	Long: `InfoQuest answers research questions with a planned, reviewable
pipeline: it decomposes the question into typed sub-questions, suspends
for human review of the plan, executes research tasks against web search
and the Anthropic API, loops until a sufficiency judge is satisfied, and
writes a cited Markdown report.

Quick start:
  infoquest run "How did EV battery prices change between 2020 and 2025?"

Suspended plans survive restarts:
  infoquest plans
  infoquest resume <plan-id> --approve`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
