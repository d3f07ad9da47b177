package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recruit-backend/internal/bootstrap"
	"recruit-backend/internal/matching"
)

var backfillCmd = &cobra.Command{
	Use:       "backfill (resume|job) ID",
	Short:     "Evaluate every missing pair for one resume or one job",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(matching.AnchorResume), string(matching.AnchorJob)},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", args[1])
		}
		return withApp(func(a *bootstrap.App) error {
			var report matching.Report
			switch matching.Anchor(args[0]) {
			case matching.AnchorResume:
				report, err = a.Backfill.ForResume(cmd.Context(), principal(), id)
			case matching.AnchorJob:
				report, err = a.Backfill.ForJob(cmd.Context(), principal(), id)
			default:
				return fmt.Errorf("unknown anchor %q, want resume or job", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches (resume|job) ID",
	Short: "List stored evaluations for one resume or one job, best first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", args[1])
		}
		return withApp(func(a *bootstrap.App) error {
			switch matching.Anchor(args[0]) {
			case matching.AnchorResume:
				items, err := a.Listings.ForResume(cmd.Context(), principal(), id)
				if err != nil {
					return err
				}
				return printJSON(items)
			case matching.AnchorJob:
				items, err := a.Listings.ForJob(cmd.Context(), principal(), id)
				if err != nil {
					return err
				}
				return printJSON(items)
			default:
				return fmt.Errorf("unknown anchor %q, want resume or job", args[0])
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(matchesCmd)
}
