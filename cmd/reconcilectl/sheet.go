package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/garyjia/tour-confirmation/internal/application/service"
	"github.com/garyjia/tour-confirmation/internal/container"
)

type sheetAction func(ctx context.Context, svc service.ConfirmationService, sheetID int64) (*service.ReconcileReport, error)

func sheetPreview(ctx context.Context, svc service.ConfirmationService, id int64) (*service.ReconcileReport, error) {
	return svc.PreviewChanges(ctx, id)
}

func sheetRegenerate(ctx context.Context, svc service.ConfirmationService, id int64) (*service.ReconcileReport, error) {
	return svc.RegenerateSheet(ctx, id)
}

func sheetReconcile(ctx context.Context, svc service.ConfirmationService, id int64) (*service.ReconcileReport, error) {
	return svc.ReconcileSheet(ctx, id)
}

func newSheetCommand(opts *rootOptions, use, short string, action sheetAction) *cobra.Command {
	var sheetID int64

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePositive("sheet", sheetID); err != nil {
				return err
			}
			return withContainer(cmd.Context(), opts, func(c *container.Container) error {
				report, err := action(cmd.Context(), c.Services().Confirmation, sheetID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().Int64Var(&sheetID, "sheet", 0, "Confirmation sheet ID")
	_ = cmd.MarkFlagRequired("sheet")

	return cmd
}
