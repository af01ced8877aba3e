package cli

import (
	"context"
	"fmt"

	"github.com/bstardust/photo-metadata/internal/config"
	"github.com/bstardust/photo-metadata/internal/journal"
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/internal/publisher"
	"github.com/bstardust/photo-metadata/pkg/s3client"
	"github.com/spf13/cobra"
)

// addS3Flags registers the connection flags. Values may also come from the
// config file or PHOTOMETA_S3_* variables, so none is marked required.
func addS3Flags(cmd *cobra.Command) {
	d := config.New().S3
	cmd.Flags().String("endpoint", "", "S3 endpoint URL")
	cmd.Flags().String("region", d.Region, "S3 region")
	cmd.Flags().String("bucket", "", "S3 bucket name")
	cmd.Flags().String("access-key", "", "S3 access key")
	cmd.Flags().String("secret-key", "", "S3 secret key")
	cmd.Flags().Bool("use-ssl", d.UseSSL, "Use SSL for S3 connection")
	cmd.Flags().String("prefix", "", "Prefix for S3 object keys")
}

func newPublishCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [flags] <dir|zip|glob>...",
		Short: "Inspect images and upload their metadata as JSON sidecars to S3",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), a.cfg, args)
		},
	}

	addS3Flags(cmd)
	addScanFlags(cmd)

	d := config.New().Publish
	cmd.Flags().Bool("dry-run", d.DryRun, "Log what would be uploaded without uploading")
	cmd.Flags().Bool("resume", d.Resume, "Skip sidecars recorded in the journal by a previous run")
	cmd.Flags().String("journal", d.JournalPath, "Path to the journal file (default ~/"+journal.DefaultName+")")
	cmd.Flags().Bool("skip-existing", d.SkipExisting, "Skip sidecars that already exist in the bucket")
	cmd.Flags().Duration("timeout", d.Timeout, "Abort the run after this long")
	return cmd
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3client.Client, error) {
	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}

	client, err := s3client.New(ctx, s3client.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
		Prefix:    cfg.S3.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return client, nil
}

func runPublish(ctx context.Context, cfg *config.Config, args []string) error {
	if cfg.Publish.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Publish.Timeout)
		defer cancel()
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	jnl := journal.New(cfg.Publish.JournalPath)
	if cfg.Publish.Resume {
		if err := jnl.Load(); err != nil {
			logger.Warn("Could not load journal: %v", err)
		}
	}

	items, _, err := runScan(ctx, cfg, args)
	if err != nil {
		return err
	}

	p := publisher.New(client, jnl, nil, publisher.Options{
		Workers:      cfg.Scan.Workers,
		DryRun:       cfg.Publish.DryRun,
		Resume:       cfg.Publish.Resume,
		SkipExisting: cfg.Publish.SkipExisting,
		Retry:        publisher.DefaultRetryConfig(),
	})
	if err := p.Publish(ctx, items); err != nil {
		return fmt.Errorf("publish to %s failed: %w", client, err)
	}

	total, withGPS := jnl.Stats()
	logger.Info("Journal %s now records %d sidecars, %d with GPS", jnl.Path(), total, withGPS)
	return nil
}
