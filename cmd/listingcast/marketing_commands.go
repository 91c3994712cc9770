package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"listingcast/internal/listing"
	"listingcast/internal/marketing"
	"listingcast/internal/workqueue"
)

type propertyFlags struct {
	propertyType string
	notice       string
	outputDir    string
}

func (f *propertyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.propertyType, "type", "", "Property type (defaults to 아파트)")
	cmd.Flags().StringVar(&f.notice, "notice", "", "Notice (defaults to branding.default_notice)")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
}

// collectProperty gathers listing data the same way the pipeline does and
// stamps the configured branding onto it.
func collectProperty(cmd *cobra.Command, ctx *commandContext, address string, flags propertyFlags) (listing.Property, listing.Branding, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return listing.Property{}, listing.Branding{}, "", err
	}
	propertyType := strings.TrimSpace(flags.propertyType)
	if propertyType == "" {
		propertyType = workqueue.DefaultCategory
	}
	collector := listing.NewCollector(cfg.Listing, &http.Client{Timeout: cfg.QueueTimeout()}, ctx.commandLogger(cmd, cfg))
	property, err := collector.Collect(cmd.Context(), address, propertyType, strings.TrimSpace(flags.notice))
	if err != nil {
		return listing.Property{}, listing.Branding{}, "", fmt.Errorf("collect listing data: %w", err)
	}
	branding := listing.BrandingFromConfig(cfg.Branding)
	dir := strings.TrimSpace(flags.outputDir)
	if dir == "" {
		dir = cfg.Paths.OutputDir
	}
	return branding.Apply(property), branding, dir, nil
}

func newCardsCommand(ctx *commandContext) *cobra.Command {
	var flags propertyFlags
	cmd := &cobra.Command{
		Use:   "cards ADDRESS",
		Short: "Create card-news images for an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(strings.Join(args, " "))
			property, branding, dir, err := collectProperty(cmd, ctx, address, flags)
			if err != nil {
				return err
			}
			paths, err := marketing.Cards(property, branding, dir)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newContractCommand(ctx *commandContext) *cobra.Command {
	var flags propertyFlags
	var parties marketing.Parties
	cmd := &cobra.Command{
		Use:   "contract ADDRESS",
		Short: "Create a sales contract document for an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(strings.Join(args, " "))
			property, branding, dir, err := collectProperty(cmd, ctx, address, flags)
			if err != nil {
				return err
			}
			path, err := marketing.Contract(property, branding, parties, dir, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&parties.Seller, "seller", "", "Seller name (blank line when omitted)")
	cmd.Flags().StringVar(&parties.Buyer, "buyer", "", "Buyer name (blank line when omitted)")
	return cmd
}
