package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/tour-confirmation/internal/config"
	"github.com/garyjia/tour-confirmation/internal/container"
	"github.com/garyjia/tour-confirmation/pkg/utils"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reconcilectl",
		Short: "Reconcile tour confirmation sheets against their quotes",
		Long: `reconcilectl previews, regenerates and reconciles confirmation sheets,
and syncs edited itineraries back into quotes without losing prices.

Outbox events written by these commands are delivered by the server's worker.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "Path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newSheetCommand(opts, "preview", "Show what a regeneration would change", sheetPreview))
	cmd.AddCommand(newSheetCommand(opts, "regenerate", "Clear pending rows and rematerialize the sheet", sheetRegenerate))
	cmd.AddCommand(newSheetCommand(opts, "reconcile", "Append the rows missing from the sheet", sheetReconcile))
	cmd.AddCommand(newSyncItineraryCommand(opts))

	return cmd
}

// withContainer builds and starts a container for one command run
func withContainer(ctx context.Context, opts *rootOptions, fn func(*container.Container) error) error {
	_ = gotenv.Load()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	level := cfg.Logger.Level
	if opts.verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cc := cfg.ToContainerConfig()
	cc.Outbox.Enabled = false

	c, err := container.NewContainer(cc, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.Warn("container close failed", zap.Error(cerr))
		}
	}()

	return fn(c)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requirePositive(name string, v int64) error {
	if err := utils.ValidateID(name, v); err != nil {
		return fmt.Errorf("--%s must be a positive ID", name)
	}
	return nil
}
