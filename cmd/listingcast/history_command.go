package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"listingcast/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			runs, err := recentRuns(cmd, ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			stdout := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				row := ""
				if run.HasItem {
					row = strconv.FormatInt(run.ItemID, 10)
				}
				detail := run.Reference
				if run.Error != "" {
					detail = run.Error
				}
				rows = append(rows, []string{
					run.FinishedAt.Local().Format("2006-01-02 15:04"),
					shortRunID(run.RunID),
					row,
					run.Subject,
					run.Outcome,
					run.Duration().Round(time.Millisecond).String(),
					detail,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Finished", "Run", "Row", "Address", "Outcome", "Took", "Reference / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

// recentRuns reads through the daemon when it is up; the history database is
// opened directly otherwise.
func recentRuns(cmd *cobra.Command, ctx *commandContext, limit int) ([]history.Run, error) {
	client, dialErr := ctx.dialClient()
	if dialErr == nil {
		defer client.Close()
		resp, err := client.History(limit)
		if err != nil {
			return nil, err
		}
		return resp.Runs, nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Recent(cmd.Context(), limit)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
