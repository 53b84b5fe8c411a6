package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/infoquestai/infoquest/internal/state"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List stored plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := state.OpenDefault()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}

		records, err := db.ListPlans()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No stored plans.")
			return nil
		}

		for _, r := range records {
			question := r.MainQuestion
			if len(question) > 60 {
				question = question[:60] + "..."
			}
			fmt.Printf("%s  %-16s  %s  %s\n",
				r.ID, statusColor(r.Status), r.UpdatedAt.Format("2006-01-02 15:04"), question)
		}
		return nil
	},
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := state.OpenDefault()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}

		if err := db.DeletePlan(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted plan %s\n", args[0])
		return nil
	},
}

func init() {
	plansCmd.AddCommand(plansDeleteCmd)
}

func statusColor(s state.PlanStatus) string {
	switch s {
	case state.PlanCompleted:
		return color.GreenString(string(s))
	case state.PlanAwaitingReview:
		return color.YellowString(string(s))
	case state.PlanFailed, state.PlanAborted:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}
