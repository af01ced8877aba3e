// Package scanner walks directories and archives and inspects every image
// it finds on a bounded worker pool.
package scanner

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/bstardust/photo-metadata/internal/fileinfo"
	"github.com/bstardust/photo-metadata/internal/fshelper"
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/internal/photo"
	"github.com/bstardust/photo-metadata/internal/progress"
	"github.com/bstardust/photo-metadata/internal/worker"
	"github.com/bstardust/photo-metadata/pkg/common"
)

// DefaultMaxFileSize bounds how much of a non-seekable file is buffered
const DefaultMaxFileSize = 256 << 20

// Options controls a scan
type Options struct {
	Workers     int
	MaxFileSize int64
	// AllImages inspects every image, not only formats that may carry EXIF
	AllImages bool
	Reporter  *progress.Reporter
}

// Item is the outcome for one file
type Item struct {
	Source string
	Path   string
	Report *photo.Report
	Err    error
}

// Key is the path of the item qualified by its source name
func (i *Item) Key() string {
	return path.Join(i.Source, i.Path)
}

// Scanner inspects images found in a set of filesystems
type Scanner struct {
	opts Options
}

// New creates a scanner
func New(opts Options) *Scanner {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.New("inspection")
	}
	return &Scanner{opts: opts}
}

// Summary returns the progress counters of the last scan
func (s *Scanner) Summary() progress.Summary {
	return s.opts.Reporter.Summary()
}

// List returns the candidate image paths in fsys, in walk order
func (s *Scanner) List(ctx context.Context, fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || fileinfo.IsSidecar(p) {
			return nil
		}
		if fileinfo.MayCarryExif(p) || (s.opts.AllImages && fileinfo.IsImageFile(p)) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// Scan inspects every candidate image across sources. Per-file failures are
// recorded on the item; the returned error is for walk failures and
// cancellation. Items are sorted by key.
func (s *Scanner) Scan(ctx context.Context, sources []fshelper.NameFS) ([]*Item, error) {
	type job struct {
		fsys fshelper.NameFS
		path string
	}

	var jobs []job
	for _, src := range sources {
		files, err := s.List(ctx, src)
		if err != nil {
			return nil, common.NewInspectError(src.Name(), "walk", err)
		}
		logger.Info("Found %d candidate images in %s", len(files), src.Name())
		for _, f := range files {
			jobs = append(jobs, job{fsys: src, path: f})
		}
	}

	reporter := s.opts.Reporter
	reporter.Start(len(jobs))

	var (
		mu    sync.Mutex
		items = make([]*Item, 0, len(jobs))
	)

	pool := worker.NewPool(ctx, s.opts.Workers)
	for _, j := range jobs {
		j := j
		pool.Submit(func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := s.inspect(j.fsys, j.path)

			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}
	err := pool.Wait()
	reporter.Finish()

	sort.Slice(items, func(a, b int) bool { return items[a].Key() < items[b].Key() })
	return items, err
}

func (s *Scanner) inspect(fsys fshelper.NameFS, p string) *Item {
	item := &Item{Source: fsys.Name(), Path: p}
	reporter := s.opts.Reporter

	f, size, err := fshelper.OpenSeeker(fsys, p, s.opts.MaxFileSize)
	if err != nil {
		item.Err = common.NewInspectError(item.Key(), "open", err)
		reporter.Error(item.Key(), item.Err)
		return item
	}
	defer f.Close()

	item.Report = photo.Inspect(p, f, size)
	for _, w := range item.Report.Warnings {
		logger.Debug("%s: %s", item.Key(), w)
	}
	reporter.Complete(item.Key(), size, item.Report.GPS != nil)
	return item
}
