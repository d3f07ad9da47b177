package main

import (
	"errors"

	"github.com/spf13/cobra"

	"recruit-backend/internal/bootstrap"
	"recruit-backend/internal/generation"
	"recruit-backend/internal/prompts"
)

var errGenerateOwner = errors.New("generate requires --user: generated rows need an owner")

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic jobs or resumes and persist them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rawType, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		entityType, err := prompts.ParseEntityType(rawType)
		if err != nil {
			return err
		}
		owner := principal()
		if owner.UserID == "" {
			return errGenerateOwner
		}
		return withApp(func(a *bootstrap.App) error {
			manifest, err := a.Generation.Generate(cmd.Context(), owner, entityType, count)
			if err != nil {
				return err
			}
			succeeded, skipped := manifest.Counts()
			return printJSON(generateReport{
				Type:      string(entityType),
				Requested: manifest.Requested,
				Succeeded: succeeded,
				Skipped:   skipped,
				Items:     reportItems(manifest),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("type", "t", "", "entity type to generate: job or resume")
	generateCmd.Flags().IntP("count", "n", generation.DefaultCount, "number of items to request")
	generateCmd.MarkFlagRequired("type")
}

type generateItem struct {
	Index    int      `json:"index"`
	Status   string   `json:"status"`
	ID       int64    `json:"id,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type generateReport struct {
	Type      string         `json:"type"`
	Requested int            `json:"requested"`
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Items     []generateItem `json:"items"`
}

func reportItems(m generation.Manifest) []generateItem {
	items := make([]generateItem, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		item := generateItem{Index: o.Index, Status: string(o.Status), Reason: o.Reason}
		switch {
		case o.Job != nil:
			item.ID = o.Job.ID
		case o.Resume != nil:
			item.ID = o.Resume.ID
		}
		for _, w := range o.Warnings {
			item.Warnings = append(item.Warnings, w.Error())
		}
		items = append(items, item)
	}
	return items
}
