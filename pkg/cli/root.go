// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/photo-metadata/internal/config"
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/spf13/cobra"
)

// flagKeys maps command-line flags onto configuration keys
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"log-format":    "log_format",
	"endpoint":      "s3.endpoint",
	"region":        "s3.region",
	"bucket":        "s3.bucket",
	"access-key":    "s3.access_key",
	"secret-key":    "s3.secret_key",
	"use-ssl":       "s3.use_ssl",
	"prefix":        "s3.prefix",
	"workers":       "scan.workers",
	"max-file-size": "scan.max_file_size",
	"all-images":    "scan.all_images",
	"dry-run":       "publish.dry_run",
	"resume":        "publish.resume",
	"journal":       "publish.journal",
	"skip-existing": "publish.skip_existing",
	"timeout":       "publish.timeout",
	"addr":          "server.addr",
	"max-upload":    "server.max_upload_size",
}

// app carries state shared by every command
type app struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{cfg: config.New()}

	rootCmd := &cobra.Command{
		Use:           "photo-metadata",
		Short:         "Read EXIF metadata and GPS positions from photos",
		Long:          `A tool that extracts EXIF metadata from JPEG, TIFF and PNG images, resolves tag names and GPS coordinates, and publishes the results as JSON sidecars to S3-compatible storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ./photo-metadata.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(
		newInspectCommand(a),
		newScanCommand(a),
		newPublishCommand(a),
		newSidecarsCommand(a),
		newServeCommand(a),
	)
	return rootCmd
}

// load resolves the configuration for cmd and applies the logging settings
func (a *app) load(cmd *cobra.Command) error {
	loader := config.NewLoader()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := loader.BindFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := loader.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.LogFormat == "json" {
		logger.SetJSONOutput(cmd.ErrOrStderr())
	} else {
		logger.SetOutput(cmd.ErrOrStderr())
	}
	logger.SetLevel(cfg.LogLevel)
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug("Loaded config from %s", used)
	}
	return nil
}

// Execute runs the CLI until completion or an interrupt
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(1)
	}
}
