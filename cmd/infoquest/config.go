package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infoquestai/infoquest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration after merging defaults, the
user config (~/.config/infoquest/config.yaml), the project config
(.infoquest.yaml), and environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Printf("anthropic.api_key: %s\n", mask(cfg.Anthropic.APIKey))
		fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model, "(sdk default)"))
		fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
		if cfg.Anthropic.UseAWSBedrock {
			fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
			fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
		}
		fmt.Printf("search.api_key: %s\n", mask(cfg.Search.APIKey))
		fmt.Printf("search.endpoint: %s\n", cfg.Search.Endpoint)
		fmt.Printf("search.max_results: %d\n", cfg.Search.MaxResults)
		fmt.Printf("limits.max_tasks: %d\n", cfg.Limits.MaxTasks)
		fmt.Printf("limits.max_rounds: %d\n", cfg.Limits.MaxRounds)
		fmt.Printf("limits.max_workers: %d\n", cfg.Limits.MaxWorkers)
		fmt.Printf("limits.task_timeout: %s\n", cfg.Limits.TaskTimeout)
		fmt.Printf("defaults.locale: %s\n", cfg.Defaults.Locale)
		fmt.Printf("defaults.output_dir: %s\n", cfg.Defaults.OutputDir)
		fmt.Printf("defaults.background_investigation: %t\n", cfg.Defaults.BackgroundInvestigation)
		fmt.Printf("\nuser config: %s\n", config.GetUserConfigPath())
		if project := config.GetProjectConfigPath(); project != "" {
			fmt.Printf("project config: %s\n", project)
		}
		return nil
	},
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "****"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
