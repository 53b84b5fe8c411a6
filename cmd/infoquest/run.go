package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/infoquestai/infoquest/internal/config"
	"github.com/infoquestai/infoquest/internal/orchestrator"
	"github.com/infoquestai/infoquest/internal/tui"
)

var (
	runMaxTasks     int
	runMaxRounds    int
	runLocale       string
	runHeadless     bool
	runReviewFile   string
	runNoBackground bool
	runOutputDir    string
)

var runCmd = &cobra.Command{
	Use:   "run <question>",
	Short: "Research a question end to end",
	Long: `Decompose a research question into a task plan, review it, execute
the tasks, and write the final report.

The plan suspends for review before anything executes. By default the
review happens in an interactive terminal screen; --review-file writes
the plan to a YAML file and waits for a decision written into it, and
--headless approves the plan without review.

During review you can approve the plan, abort it, or request changes
("edit: focus on residential installs"); an edited plan comes back for
another review.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestion,
}

func init() {
	runCmd.Flags().IntVar(&runMaxTasks, "max-tasks", 0, "Cap on sub-questions per decomposition (default from config)")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", -1, "Cap on judge re-planning rounds (default from config)")
	runCmd.Flags().StringVar(&runLocale, "locale", "", "Output locale, e.g. en-US or zh-CN (default from config)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Approve the plan without review")
	runCmd.Flags().StringVar(&runReviewFile, "review-file", "", "Review via a YAML file at this path instead of the terminal UI")
	runCmd.Flags().BoolVar(&runNoBackground, "no-background", false, "Skip the pre-decomposition background search")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "Report output directory (default from config)")
}

func runQuestion(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	orchCfg := orchConfigFromFlags(cfg)

	var reviewer orchestrator.Reviewer
	switch {
	case runHeadless:
		reviewer = orchestrator.AutoApprover{}
	case runReviewFile != "":
		reviewer = orchestrator.FileReviewer{Path: runReviewFile}
	default:
		reviewer = tui.Reviewer{}
	}

	p, err := buildPipeline(cfg, orchCfg, reviewer)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := p.orch.Run(ctx, args[0])
	printUsage(p)
	if err != nil {
		if errors.Is(err, orchestrator.ErrAborted) {
			color.Yellow("Plan aborted.")
			return nil
		}
		return err
	}

	color.Green("Report written to %s", path)
	return nil
}

// orchConfigFromFlags merges config defaults with run flag overrides.
func orchConfigFromFlags(cfg *config.Config) orchestrator.Config {
	out := orchestrator.Config{
		Locale:                  cfg.Defaults.Locale,
		MaxTasks:                cfg.Limits.MaxTasks,
		MaxRounds:               cfg.Limits.MaxRounds,
		OutputDir:               cfg.Defaults.OutputDir,
		BackgroundInvestigation: cfg.Defaults.BackgroundInvestigation && !runNoBackground,
	}
	if runMaxTasks > 0 {
		out.MaxTasks = runMaxTasks
	}
	if runMaxRounds >= 0 {
		out.MaxRounds = runMaxRounds
	}
	if runLocale != "" {
		out.Locale = runLocale
	}
	if runOutputDir != "" {
		out.OutputDir = runOutputDir
	}
	return out
}

func printUsage(p *pipeline) {
	in, out := p.tracker.Total()
	if calls := p.tracker.Calls(); calls > 0 {
		fmt.Fprintf(os.Stderr, "API usage: %d calls, %d input tokens, %d output tokens\n", calls, in, out)
	}
}
