package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"listingcast/internal/daemon"
	"listingcast/internal/pipeline"
	"listingcast/internal/progress"
	"listingcast/internal/publish"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var propertyType string
	var notice string
	var yes bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run ADDRESS",
		Short: "Produce and publish a video for one address without the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			address := strings.TrimSpace(strings.Join(args, " "))
			if address == "" {
				return fmt.Errorf("address is required")
			}

			stdout := cmd.OutOrStdout()
			logger := ctx.commandLogger(cmd, cfg)
			gate := publish.NewConsoleGate(cmd.InOrStdin(), stdout)
			unattended := yes || cfg.Publish.Unattended

			p, closeFn, err := daemon.Standalone(cmd.Context(), cfg, logger, daemon.Components{}, gate, unattended)
			if err != nil {
				return err
			}
			defer closeFn()

			var observer progress.Observer
			if !asJSON {
				observer = progressPrinter(stdout)
			}
			result := p.Run(cmd.Context(), pipeline.Job{
				Subject:    address,
				Category:   strings.TrimSpace(propertyType),
				Annotation: strings.TrimSpace(notice),
			}, observer)

			if asJSON {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(stdout)
				fmt.Fprint(stdout, renderKeyValues(resultRows(result)))
			}
			if !result.Succeeded() {
				return fmt.Errorf("run failed: %s", result.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&propertyType, "type", "", "Property type (defaults to 아파트)")
	cmd.Flags().StringVar(&notice, "notice", "", "Notice shown on slides (defaults to branding.default_notice)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Publish without asking for confirmation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func progressPrinter(out io.Writer) progress.Observer {
	return func(message string, percent int) error {
		_, err := fmt.Fprintf(out, "[%3d%%] %s\n", percent, message)
		return err
	}
}

func resultRows(result pipeline.Result) [][2]string {
	rows := [][2]string{
		{"Run", result.RunID},
		{"Address", result.Subject},
		{"Outcome", string(result.Outcome)},
	}
	if result.PublishedReference != "" {
		rows = append(rows, [2]string{"Published", result.PublishedReference})
	}
	if result.Error != "" {
		rows = append(rows, [2]string{"Error", result.Error})
	}
	kinds := make([]string, 0, len(result.Artifacts))
	for kind := range result.Artifacts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		rows = append(rows, [2]string{kind, result.Artifacts[pipeline.ArtifactKind(kind)]})
	}
	if !result.StartedAt.IsZero() && !result.FinishedAt.IsZero() {
		rows = append(rows, [2]string{"Duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String()})
	}
	return rows
}
