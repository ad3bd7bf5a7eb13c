package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/play-publisher/internal/config"
	"github.com/oshokin/play-publisher/internal/logger"
	"github.com/oshokin/play-publisher/internal/service/publisher"
	"github.com/oshokin/play-publisher/internal/version"
)

//nolint:gochecknoglobals // Flag targets are bound once by Cobra at init.
var (
	// configPath points to the optional settings YAML file.
	configPath string

	// Flag values overlaying the settings file.
	releaseDirectory        string
	releaseName             string
	track                   string
	releaseStatus           string
	userFraction            float64
	inAppUpdatePriority     int64
	metadata                string
	changesNotSentForReview bool
	credentialsFile         string
	trackMergePolicy        string
	toolCacheDir            string
	logLevel                string

	// rootCmd represents the base command publishing a release directory.
	rootCmd = &cobra.Command{
		Use:   "play-publisher",
		Short: "Publish an APK or app bundle from a release directory to a Google Play track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}

			if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
				logger.SetLevel(level)
			}

			return publisher.Run(ctx, cfg)
		},
	}
)

// Execute runs the play-publisher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig loads the settings file and overlays explicitly set
// flags, so flags always win over file values. A missing file is only
// an error when --config asked for it explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	loaded, err := config.Load(configPath)

	switch {
	case err == nil:
		cfg = loaded
	case cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	flagTargets := map[string]func(){
		"release-directory":           func() { cfg.ReleaseDirectory = releaseDirectory },
		"release-name":                func() { cfg.ReleaseName = releaseName },
		"track":                       func() { cfg.Track = track },
		"release-status":              func() { cfg.ReleaseStatus = releaseStatus },
		"user-fraction":               func() { cfg.UserFraction = userFraction },
		"in-app-update-priority":      func() { cfg.InAppUpdatePriority = inAppUpdatePriority },
		"metadata":                    func() { cfg.Metadata = metadata },
		"changes-not-sent-for-review": func() { cfg.ChangesNotSentForReview = changesNotSentForReview },
		"credentials":                 func() { cfg.CredentialsFile = credentialsFile },
		"track-merge-policy":          func() { cfg.TrackMergePolicy = config.TrackMergePolicy(trackMergePolicy) },
		"tool-cache-dir":              func() { cfg.ToolCacheDir = toolCacheDir },
		"log-level":                   func() { cfg.LogLevel = logLevel },
	}

	for name, apply := range flagTargets {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&releaseDirectory, "release-directory", "d", "", "directory containing the build artifacts to publish")
	flags.StringVar(&releaseName, "release-name", "", "release name (defaults to \"<versionCode> (<versionName>)\")")
	flags.StringVar(&track, "track", config.DefaultTrack, "distribution track receiving the release")
	flags.StringVar(&releaseStatus, "release-status", config.StatusCompleted, "release status (draft|inProgress|completed|halted)")
	flags.Float64Var(&userFraction, "user-fraction", 0, "staged rollout fraction, 0-1 (inProgress and halted only)")
	flags.Int64Var(&inAppUpdatePriority, "in-app-update-priority", 0, "in-app update priority, 0-5")
	flags.StringVar(&metadata, "metadata", "", "store-listing metadata as inline JSON or a path to a JSON file")
	flags.BoolVar(&changesNotSentForReview, "changes-not-sent-for-review", false, "do not auto-submit committed changes for review")
	flags.StringVar(&credentialsFile, "credentials", "", "path to the service-account key file")
	flags.StringVar(&trackMergePolicy, "track-merge-policy", string(config.TrackMergePolicyReplace), "how to merge into the track's releases (replace|append)")
	flags.StringVar(&toolCacheDir, "tool-cache-dir", "", "directory caching provisioned inspection tools")
	flags.StringVar(&logLevel, "log-level", "info", "minimum log level (debug|info|warn|error|fatal)")
}
