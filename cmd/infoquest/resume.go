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
	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/internal/orchestrator"
)

var (
	resumeApprove bool
	resumeEdit    string
	resumeFinal   bool
	resumeAbort   bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume <plan-id>",
	Short: "Resume a suspended plan",
	Long: `Apply a review decision to a plan suspended at the feedback gate.

Exactly one of --approve, --edit, or --abort is required. An approved
plan executes to completion; an edited plan is re-decomposed and
suspends again for another review (--final skips that re-review).`,
	Args: cobra.ExactArgs(1),
	RunE: resumePlan,
}

func init() {
	resumeCmd.Flags().BoolVar(&resumeApprove, "approve", false, "Approve the plan and execute it")
	resumeCmd.Flags().StringVar(&resumeEdit, "edit", "", "Request a revised plan with these instructions")
	resumeCmd.Flags().BoolVar(&resumeFinal, "final", false, "With --edit: approve the revision without another review")
	resumeCmd.Flags().BoolVar(&resumeAbort, "abort", false, "Discard the plan")
}

func resumePlan(cmd *cobra.Command, args []string) error {
	var cmdParsed feedback.Command
	switch {
	case resumeApprove && resumeEdit == "" && !resumeAbort:
		cmdParsed = feedback.Command{Action: feedback.ActionApprove}
	case resumeEdit != "" && !resumeApprove && !resumeAbort:
		cmdParsed = feedback.Command{Action: feedback.ActionEdit, EditText: resumeEdit, Final: resumeFinal}
	case resumeAbort && !resumeApprove && resumeEdit == "":
		cmdParsed = feedback.Command{Action: feedback.ActionAbort}
	default:
		return fmt.Errorf("exactly one of --approve, --edit, or --abort is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Resume applies one command; no interactive reviewer is involved.
	p, err := buildPipeline(cfg, orchConfigFromFlags(cfg), orchestrator.AutoApprover{})
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := p.orch.Resume(ctx, args[0], cmdParsed)
	printUsage(p)
	if err != nil {
		if errors.Is(err, orchestrator.ErrAborted) {
			color.Yellow("Plan %s aborted.", args[0])
			return nil
		}
		return err
	}

	if path == "" {
		color.Yellow("Plan %s revised and awaiting another review.", args[0])
		return nil
	}
	color.Green("Report written to %s", path)
	return nil
}
