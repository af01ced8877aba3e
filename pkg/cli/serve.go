package cli

import (
	"github.com/bstardust/photo-metadata/internal/config"
	"github.com/bstardust/photo-metadata/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metadata extraction HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.New(a.cfg.Server).ListenAndServe(cmd.Context())
		},
	}

	d := config.New().Server
	cmd.Flags().String("addr", d.Addr, "Listen address")
	cmd.Flags().Int64("max-upload", d.MaxUploadSize, "Largest accepted upload, in bytes")
	return cmd
}
