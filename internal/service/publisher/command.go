package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/play-publisher/internal/config"
	"github.com/oshokin/play-publisher/internal/domain/listing"
	"github.com/oshokin/play-publisher/internal/domain/release"
	"github.com/oshokin/play-publisher/internal/logger"
	"github.com/oshokin/play-publisher/internal/repository/toolcache"
	"github.com/oshokin/play-publisher/internal/service/bundletool"
	"github.com/oshokin/play-publisher/internal/service/googleplay"
	"github.com/oshokin/play-publisher/internal/service/manifest"
)

// Run executes one release-publishing attempt and is the public entry
// point for the CLI. Configuration and classification problems are
// reported before any remote call is attempted.
func Run(ctx context.Context, cfg *config.Config) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "play-publisher")

	if err := config.Validate(cfg); err != nil {
		return err
	}

	meta, err := listing.Load(cfg.Metadata)
	if err != nil {
		return err
	}

	assets, err := classifyDirectory(ctx, cfg.ReleaseDirectory)
	if err != nil {
		return err
	}

	info, err := extractPackageInfo(ctx, cfg, assets)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Publishing release",
		"package", info.AppID,
		"version", info.ReleaseLabel(),
		"track", cfg.Track)

	api, err := googleplay.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return err
	}

	if err = newService(api, cfg, meta).publish(ctx, info, assets); err != nil {
		logger.ErrorKV(ctx, "Publishing run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Publishing run completed")

	return nil
}

// classifyDirectory lists the release directory and classifies its contents.
func classifyDirectory(ctx context.Context, dir string) (*release.AssetSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read release directory: %w", err)
	}

	paths := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	assets, err := release.Classify(paths)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Classified release directory",
		"kind", string(assets.Kind),
		"primary", assets.PrimaryPath,
		"expansion_files", len(assets.ExpansionFiles),
		"symbol_files", len(assets.SymbolFiles))

	return assets, nil
}

// extractPackageInfo reads the primary artifact's identity, provisioning
// the bundle-inspection tool on demand for bundles.
func extractPackageInfo(ctx context.Context, cfg *config.Config,
	assets *release.AssetSet,
) (*release.PackageInfo, error) {
	cache, err := toolcache.NewRepository(cfg.ToolCacheDir)
	if err != nil {
		return nil, err
	}

	provisioner := bundletool.NewProvisioner(cache,
		bundletool.NewGitHubReleaseSource(cfg.GitHubToken))

	return manifest.NewExtractor(provisioner).Extract(ctx, assets.PrimaryPath)
}
