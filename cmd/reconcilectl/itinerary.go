package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/tour-confirmation/internal/container"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
)

func newSyncItineraryCommand(opts *rootOptions) *cobra.Command {
	var (
		quoteID int64
		file    string
	)

	cmd := &cobra.Command{
		Use:   "sync-itinerary",
		Short: "Rebuild a quote's meals and hotels from an edited itinerary",
		Long: `sync-itinerary reads itinerary days from a YAML file and rebuilds the
quote's meal and hotel buckets, carrying prices forward for unchanged items.

The file is either a list of days or a mapping with a "days" key:

  days:
    - day: 1
      lunch: ABC Cafe
      hotel: Grand Hotel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePositive("quote", quoteID); err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read itinerary file: %w", err)
			}
			days, err := parseDays(raw)
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				report, err := c.Services().Itinerary.SyncItinerary(cmd.Context(), quoteID, days)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().Int64Var(&quoteID, "quote", 0, "Quote ID")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Itinerary YAML file")
	_ = cmd.MarkFlagRequired("quote")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// parseDays accepts either a bare list of days or {days: [...]}
func parseDays(raw []byte) ([]entity.ItineraryDay, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("itinerary file is empty")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to parse itinerary: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("itinerary file is empty")
	}

	var days []entity.ItineraryDay
	switch doc := node.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&days); err != nil {
			return nil, fmt.Errorf("failed to parse itinerary: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Days []entity.ItineraryDay `yaml:"days"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse itinerary: %w", err)
		}
		days = wrapped.Days
	default:
		return nil, fmt.Errorf("itinerary must be a list of days or a mapping with a days key")
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("itinerary has no days")
	}
	return days, nil
}
