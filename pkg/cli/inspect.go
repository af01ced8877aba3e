package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bstardust/photo-metadata/internal/metadata"
	"github.com/bstardust/photo-metadata/internal/photo"
	"github.com/bstardust/photo-metadata/pkg/common"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInspectCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [flags] <image>...",
		Short: "Print the EXIF metadata and GPS position of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON")
	return cmd
}

func runInspect(out io.Writer, paths []string, asJSON bool) error {
	reports := make([]*photo.Report, 0, len(paths))
	for _, p := range paths {
		rep, err := inspectFile(p)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(reports)
	}

	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printReport(out, rep)
	}
	return nil
}

func inspectFile(path string) (*photo.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewInspectError(path, "open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, common.NewInspectError(path, "stat", err)
	}
	return photo.Inspect(path, f, info.Size()), nil
}

func printReport(out io.Writer, rep *photo.Report) {
	fmt.Fprintf(out, "%s (%s", rep.Name, humanize.Bytes(uint64(rep.Size)))
	if rep.Format != "" {
		fmt.Fprintf(out, ", %s %s", rep.Format, rep.Dimensions())
	}
	fmt.Fprintln(out, ")")

	if !rep.HasExif() {
		fmt.Fprintln(out, "  no EXIF metadata")
	} else {
		printMetadata(out, rep.Metadata, 1)
	}

	if rep.GPS != nil {
		fmt.Fprintf(out, "  Location: %s\n", rep.GPS)
		if rep.GPS.Altitude != nil {
			fmt.Fprintf(out, "  Altitude: %.1f m\n", *rep.GPS.Altitude)
		}
		fmt.Fprintf(out, "  Map: %s\n", rep.GPS.MapsURL())
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}

func printMetadata(out io.Writer, md metadata.Metadata, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, k := range md.Keys() {
		v := md[k]
		if v.Kind == metadata.KindNested {
			fmt.Fprintf(out, "%s%s:\n", indent, k)
			printMetadata(out, v.Nested, depth+1)
			continue
		}
		fmt.Fprintf(out, "%s%s: %s\n", indent, k, v)
	}
}
