package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"listingcast/internal/ipc"
	"listingcast/internal/workqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the listing work queue",
	}

	var source string
	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List queue rows and whether each one is still pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, fromDaemon, err := listQueue(cmd, ctx, strings.TrimSpace(source))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, items)
			}
			stdout := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			headers := []string{"Row", "Address", "Type", "Status"}
			if fromDaemon {
				headers = append(headers, "Seen")
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				status := item.Status
				if item.RawStatus != "" && item.RawStatus != item.Status {
					status = fmt.Sprintf("%s (%s)", item.Status, item.RawStatus)
				}
				row := []string{strconv.FormatInt(item.ID, 10), item.Subject, item.Category, status}
				if fromDaemon {
					row = append(row, yesNo(item.Seen))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(stdout, renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
	listCmd.Flags().StringVar(&source, "source", "", "Queue reference (defaults to queue.source_ref)")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")

	queueCmd.AddCommand(listCmd)
	return queueCmd
}

// listQueue asks the daemon first so rows carry the monitor's seen flag and
// falls back to reading the source directly.
func listQueue(cmd *cobra.Command, ctx *commandContext, source string) ([]ipc.QueueItem, bool, error) {
	client, dialErr := ctx.dialClient()
	if dialErr == nil {
		defer client.Close()
		resp, err := client.QueueList(source)
		if err != nil {
			return nil, true, err
		}
		return resp.Items, true, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	if source == "" {
		source = cfg.Queue.SourceRef
	}
	if source == "" {
		return nil, false, errors.New("no queue reference; pass --source or set queue.source_ref")
	}
	queue, err := workqueue.NewSourceFromConfig(cfg, ctx.commandLogger(cmd, cfg), nil)
	if err != nil {
		return nil, false, err
	}
	rows, err := queue.List(cmd.Context(), source)
	if err != nil {
		return nil, false, err
	}
	items := make([]ipc.QueueItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ipc.QueueItem{
			ID:        row.ID,
			Subject:   row.Subject,
			Category:  row.Category,
			Status:    string(row.Status),
			RawStatus: row.RawStatus,
		})
	}
	return items, false, nil
}
