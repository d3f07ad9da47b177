package main

import (
	"github.com/spf13/cobra"

	"recruit-backend/internal/bootstrap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one resume against one job with the LLM and store the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resumeID, jobID := pairFlags(cmd)
		return withApp(func(a *bootstrap.App) error {
			res, err := a.Evaluator.Evaluate(cmd.Context(), principal(), resumeID, jobID)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute the rule-based score for one resume and job pair",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resumeID, jobID := pairFlags(cmd)
		return withApp(func(a *bootstrap.App) error {
			ev, err := a.Calculator.Calculate(cmd.Context(), principal(), resumeID, jobID)
			if err != nil {
				return err
			}
			return printJSON(ev)
		})
	},
}

func pairFlags(cmd *cobra.Command) (resumeID, jobID int64) {
	resumeID, _ = cmd.Flags().GetInt64("resume")
	jobID, _ = cmd.Flags().GetInt64("job")
	return resumeID, jobID
}

func init() {
	for _, c := range []*cobra.Command{evaluateCmd, calculateCmd} {
		rootCmd.AddCommand(c)
		c.Flags().Int64P("resume", "r", 0, "resume id")
		c.Flags().Int64P("job", "j", 0, "job id")
		c.MarkFlagRequired("resume")
		c.MarkFlagRequired("job")
	}
}
