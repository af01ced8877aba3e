package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bstardust/photo-metadata/internal/config"
	"github.com/bstardust/photo-metadata/internal/fshelper"
	"github.com/bstardust/photo-metadata/internal/progress"
	"github.com/bstardust/photo-metadata/internal/scanner"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func addScanFlags(cmd *cobra.Command) {
	d := config.New().Scan
	cmd.Flags().Int("workers", d.Workers, "Number of images inspected concurrently")
	cmd.Flags().Int64("max-file-size", d.MaxFileSize, "Largest zip member buffered for inspection, in bytes")
	cmd.Flags().Bool("all-images", d.AllImages, "Also inspect formats that rarely carry EXIF (gif, webp, bmp, heic)")
}

func newScanCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [flags] <dir|zip|glob>...",
		Short: "Inspect every image in directories or zip archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, sum, err := runScan(cmd.Context(), a.cfg, args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeScanJSON(cmd.OutOrStdout(), items)
			}
			writeScanTable(cmd.OutOrStdout(), items, sum)
			return nil
		},
	}

	addScanFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON")
	return cmd
}

// runScan opens the sources and inspects every candidate image
func runScan(ctx context.Context, cfg *config.Config, paths []string) ([]*scanner.Item, progress.Summary, error) {
	sources, err := fshelper.ParsePath(paths)
	if err != nil {
		return nil, progress.Summary{}, err
	}
	defer fshelper.Close(sources)

	s := scanner.New(scanner.Options{
		Workers:     cfg.Scan.Workers,
		MaxFileSize: cfg.Scan.MaxFileSize,
		AllImages:   cfg.Scan.AllImages,
	})
	items, err := s.Scan(ctx, sources)
	if err != nil {
		return nil, progress.Summary{}, fmt.Errorf("scan failed: %w", err)
	}
	return items, s.Summary(), nil
}

type scanEntry struct {
	Key    string `json:"key"`
	Error  string `json:"error,omitempty"`
	Report any    `json:"report,omitempty"`
}

func writeScanJSON(out io.Writer, items []*scanner.Item) error {
	entries := make([]scanEntry, 0, len(items))
	for _, it := range items {
		e := scanEntry{Key: it.Key()}
		if it.Err != nil {
			e.Error = it.Err.Error()
		}
		if it.Report != nil {
			e.Report = it.Report
		}
		entries = append(entries, e)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeScanTable(out io.Writer, items []*scanner.Item, sum progress.Summary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tTAGS\tTAKEN\tLOCATION")
	for _, it := range items {
		if it.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\terror: %v\n", it.Key(), it.Err)
			continue
		}
		rep := it.Report
		taken, _ := rep.Metadata.Text("DateTimeOriginal")
		if taken == "" {
			taken, _ = rep.Metadata.Text("DateTime")
		}
		if taken == "" {
			taken = "-"
		}
		location := "-"
		if rep.GPS != nil {
			location = rep.GPS.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.Key(), humanize.Bytes(uint64(rep.Size)), len(rep.Metadata), taken, location)
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%s images, %s with GPS, %d errors, %s in %s\n",
		humanize.Comma(int64(sum.Total)), humanize.Comma(int64(sum.WithGPS)), sum.Errors,
		humanize.Bytes(sum.Bytes), sum.Elapsed.Round(time.Millisecond))
}
