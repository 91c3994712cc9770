package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"listingcast/internal/ipc"
)

func newPublishModeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "publish-mode on|off",
		Short:     "Switch unattended publishing on or off in the running daemon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var unattended bool
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "on", "unattended":
				unattended = true
			case "off", "confirm", "confirmed":
				unattended = false
			default:
				return fmt.Errorf("unknown publish mode %q (use on or off)", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetPublishMode(unattended)
				if err != nil {
					return err
				}
				if resp.Unattended {
					fmt.Fprintln(cmd.OutOrStdout(), "Unattended publishing enabled")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Uploads now wait for `listingcast approvals approve ID`")
				}
				return nil
			})
		},
	}
}

func newApprovalsCommand(ctx *commandContext) *cobra.Command {
	approvalsCmd := &cobra.Command{
		Use:   "approvals",
		Short: "Review uploads waiting for operator approval",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List parked uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Approvals()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Approvals) == 0 {
					fmt.Fprintln(stdout, "No uploads waiting for approval")
					return nil
				}
				rows := make([][]string, 0, len(resp.Approvals))
				for _, a := range resp.Approvals {
					rows = append(rows, []string{
						strconv.FormatInt(a.ID, 10),
						a.Subject,
						a.Title,
						a.Backend,
						a.ExpiresAt.Local().Format("15:04:05"),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Address", "Title", "Backend", "Expires"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	decide := func(use, short string, call func(*ipc.Client, int64) (*ipc.DecisionResponse, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid approval id %q", args[0])
				}
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := call(client, id)
					if err != nil {
						return err
					}
					if !resp.Delivered {
						return fmt.Errorf("approval %d: %s", id, resp.Message)
					}
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				})
			},
		}
	}

	approvalsCmd.AddCommand(listCmd)
	approvalsCmd.AddCommand(decide("approve", "Publish a parked upload", (*ipc.Client).Approve))
	approvalsCmd.AddCommand(decide("reject", "Cancel a parked upload", (*ipc.Client).Reject))
	return approvalsCmd
}
