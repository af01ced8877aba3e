package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bstardust/photo-metadata/internal/publisher"
	"github.com/bstardust/photo-metadata/pkg/s3client"
	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

func newSidecarsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidecars [flags] [key-prefix]",
		Short: "List the metadata sidecars published to S3",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newS3Client(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return listSidecars(cmd.Context(), cmd.OutOrStdout(), client, prefix)
		},
	}

	addS3Flags(cmd)
	return cmd
}

// sidecarLister is the part of s3client.S3Interface listing needs
type sidecarLister interface {
	ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error)
	GetBucketName() string
}

var _ sidecarLister = (s3client.S3Interface)(nil)

func listSidecars(ctx context.Context, out io.Writer, client sidecarLister, prefix string) error {
	objects, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	var count int
	var total uint64
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, publisher.SidecarSuffix) {
			continue
		}
		count++
		total += uint64(obj.Size)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", obj.Key, humanize.Bytes(uint64(obj.Size)), humanize.Time(obj.LastModified))
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d sidecars (%s) in s3://%s\n", count, humanize.Bytes(total), client.GetBucketName())
	return nil
}
