package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listingcast/internal/ipc"
	"listingcast/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !local {
				if client, err := ctx.dialClient(); err == nil {
					defer client.Close()
					return reportNotification(cmd, client)
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" && strings.TrimSpace(cfg.Notifications.SQSQueueURL) == "" {
				fmt.Fprintln(out, "no notification sink configured")
				return nil
			}
			service := notifications.NewService(cmd.Context(), cfg, ctx.commandLogger(cmd, cfg))
			if err := service.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "test notification sent")
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Send from this process instead of the daemon")
	return cmd
}

func reportNotification(cmd *cobra.Command, client *ipc.Client) error {
	resp, err := client.TestNotification()
	if err != nil {
		return err
	}
	switch {
	case resp.Message != "":
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	case resp.Sent:
		fmt.Fprintln(cmd.OutOrStdout(), "test notification sent")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "notification not sent")
	}
	return nil
}
