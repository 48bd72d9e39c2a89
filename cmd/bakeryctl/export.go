package main

import (
	"context"
	"fmt"

	"annies-bakery/internal/export"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		dir    string
		useS3  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all orders to a CSV file, optionally uploading it to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if dir == "" {
					dir = a.cfg.Export.Dir
				}

				local := export.NewFileSink(dir, a.logger)
				sink := local

				if useS3 || a.cfg.S3.Enabled {
					remote, err := export.NewS3Sink(ctx, a.cfg.S3.Bucket, a.cfg.S3.Region, a.cfg.S3.Prefix, a.logger)
					if err != nil {
						a.logger.Warn().
							Err(err).
							Msg("failed to initialise S3 sink, falling back to local file system only")
					} else {
						sink = export.NewFallbackSink(remote, local, true, a.logger)
					}
				}

				exporter := export.NewExporter(a.orders, a.custom, sink, a.logger)

				if stdout {
					data, err := exporter.Render(ctx)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}

				location, err := exporter.Export(ctx)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), location)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Local export directory (defaults to EXPORT_DIR)")
	cmd.Flags().BoolVar(&useS3, "s3", false, "Upload to the configured S3 bucket, keeping a local copy on failure")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the CSV instead of storing it")

	return cmd
}
