// Package publisher uploads inspection reports as JSON sidecars to
// S3-compatible storage.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bstardust/photo-metadata/internal/journal"
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/internal/progress"
	"github.com/bstardust/photo-metadata/internal/scanner"
	"github.com/bstardust/photo-metadata/internal/worker"
	"github.com/bstardust/photo-metadata/pkg/s3client"
	"go.uber.org/multierr"
)

// SidecarSuffix is appended to the image key to form the sidecar key
const SidecarSuffix = ".exif.json"

const sidecarContentType = "application/json"

// Options controls a publish run
type Options struct {
	Workers int
	DryRun  bool
	// Resume skips keys the journal already records
	Resume bool
	// SkipExisting skips keys already present in the bucket
	SkipExisting bool
	Retry        RetryConfig
}

// Publisher uploads sidecars
type Publisher struct {
	client   s3client.S3Interface
	journal  *journal.Journal
	progress *progress.Reporter
	opts     Options
}

// New creates a publisher. jnl may be nil to disable resume tracking.
func New(client s3client.S3Interface, jnl *journal.Journal, reporter *progress.Reporter, opts Options) *Publisher {
	if reporter == nil {
		reporter = progress.New("publish")
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialBackoff == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &Publisher{
		client:   client,
		journal:  jnl,
		progress: reporter,
		opts:     opts,
	}
}

// SidecarKey returns the object key for an item's sidecar
func SidecarKey(item *scanner.Item) string {
	return item.Key() + SidecarSuffix
}

// Summary returns the progress counters of the last run
func (p *Publisher) Summary() progress.Summary {
	return p.progress.Summary()
}

// Publish uploads a sidecar for every successfully inspected item. Items that
// failed inspection are skipped. The returned error combines every failed
// upload.
func (p *Publisher) Publish(ctx context.Context, items []*scanner.Item) error {
	p.progress.Start(len(items))

	var (
		mu   sync.Mutex
		errs error
	)
	fail := func(key string, err error) {
		p.progress.Error(key, err)
		mu.Lock()
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
		mu.Unlock()
	}

	pool := worker.NewPool(ctx, p.opts.Workers)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		key := SidecarKey(item)
		if item.Report == nil {
			p.progress.Skip(key)
			continue
		}
		if p.opts.Resume && p.journal != nil && p.journal.IsPublished(key) {
			p.progress.Skip(key)
			continue
		}

		item := item
		pool.Submit(func(ctx context.Context) error {
			published, err := p.publishOne(ctx, key, item)
			if err != nil {
				fail(key, err)
				return nil
			}
			if !published {
				p.progress.Skip(key)
				return nil
			}
			p.progress.Complete(key, item.Report.Size, item.Report.GPS != nil)
			return nil
		})
	}
	_ = pool.Wait()
	p.progress.Finish()

	if p.journal != nil && !p.opts.DryRun {
		if err := p.journal.Flush(); err != nil {
			logger.Error("Failed to save journal: %v", err)
		}
	}

	if ctx.Err() != nil {
		return multierr.Append(errs, ctx.Err())
	}
	return errs
}

// publishOne uploads one sidecar. published is false when it was skipped.
func (p *Publisher) publishOne(ctx context.Context, key string, item *scanner.Item) (published bool, err error) {
	if p.opts.SkipExisting && !p.opts.DryRun {
		exists, err := p.client.ObjectExists(ctx, key)
		if err != nil {
			logger.Warn("Failed to check if %s exists: %v", key, err)
		} else if exists {
			if p.journal != nil {
				p.journal.MarkPublished(key, item.Source, item.Report.GPS != nil)
			}
			return false, nil
		}
	}

	body, err := json.MarshalIndent(item.Report, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode report: %w", err)
	}
	meta := item.Report.ToMap()

	if p.opts.DryRun {
		logger.Info("DRY RUN: Would upload %s (%d bytes) with %d metadata fields", key, len(body), len(meta))
		return true, nil
	}

	err = RetryWithBackoff(ctx, "upload "+key, func() error {
		return p.client.UploadFile(ctx, bytes.NewReader(body), key, int64(len(body)), meta, sidecarContentType)
	}, p.opts.Retry)
	if err != nil {
		return false, err
	}

	if p.journal != nil {
		p.journal.MarkPublished(key, item.Source, item.Report.GPS != nil)
	}
	return true, nil
}
