// Package main runs one batch refresh of the periodic returns cache from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/di"
	"github.com/aristath/navreturns/internal/work"
	"github.com/aristath/navreturns/pkg/logger"
)

// refreshAction loads configuration, optionally reloads scheme metadata, then runs the batch
func refreshAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The nightly schedule belongs to the server
	cfg.Refresh.Schedule = ""

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	if path := cmd.String("load-metadata"); path != "" {
		n, err := di.LoadMetadata(container, path, true, log)
		if err != nil {
			return fmt.Errorf("failed to load metadata from %s: %w", path, err)
		}
		log.Info().Int("schemes", n).Msg("Metadata reloaded")
	}

	summary, runErr := container.Refresher.Run(ctx, work.RunOptions{
		Offset: int(cmd.Int("offset")),
		Limit:  int(cmd.Int("limit")),
		Resume: cmd.Bool("resume"),
	})
	if summary != nil {
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		if err := out.Encode(summary); err != nil {
			return fmt.Errorf("failed to print summary: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("refresh stopped: %w", runErr)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "refresh",
		Usage: "Recompute cached periodic returns for the scheme catalogue",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Catalogue position to start from",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of schemes to process (0 = all)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "resume",
				Usage: "Continue from the checkpoint of an interrupted run",
			},
			&cli.StringFlag{
				Name:  "load-metadata",
				Usage: "Reload scheme metadata from this CSV `FILE` before refreshing",
			},
		},
		Action: refreshAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
