package bundletool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/play-publisher/internal/logger"
	"github.com/oshokin/play-publisher/internal/repository/toolcache"
)

const (
	// ToolName is the cache key for the bundle-inspection tool.
	ToolName = "bundletool"

	// Upstream repository publishing bundletool releases.
	repositoryOwner = "google"
	repositoryName  = "bundletool"

	// assetSuffix identifies the runnable release asset.
	assetSuffix = ".jar"

	// jarFilename is the name the downloaded archive is cached under.
	jarFilename = "bundletool.jar"

	// runtimeBinary is the language runtime required to run the archive.
	runtimeBinary = "java"

	// DefaultFileMode is used for cached tool files and shims.
	DefaultFileMode os.FileMode = 0o755
)

var (
	// ErrMissingRuntime is returned when the Java runtime is not on PATH.
	ErrMissingRuntime = errors.New("java runtime not found")
	// ErrToolAcquisitionFailed is returned when no suitable release asset
	// is found or the download is empty.
	ErrToolAcquisitionFailed = errors.New("tool acquisition failed")
)

// Provisioner guarantees a runnable bundletool path before metadata
// extraction needs it, caching installs across invocations.
type Provisioner struct {
	// cache persists installed tool versions across invocations.
	cache *toolcache.Repository
	// source resolves the latest upstream release.
	source ReleaseSource
	// httpClient downloads release assets.
	httpClient *http.Client
}

// Option configures provisioner behaviour.
type Option func(*Provisioner)

// WithHTTPClient overrides the HTTP client used for asset downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provisioner) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvisioner creates a provisioner over the given cache and release source.
func NewProvisioner(cache *toolcache.Repository, source ReleaseSource, opts ...Option) *Provisioner {
	p := &Provisioner{
		cache:      cache,
		source:     source,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Resolve returns a runnable bundletool path, installing the latest
// upstream release on a cache miss. The resolved directory is prepended
// to PATH so later lookups in this process find the tool too.
func (p *Provisioner) Resolve(ctx context.Context) (string, error) {
	ctx = logger.WithName(ctx, ToolName)

	version, dir, err := p.cache.Latest(ToolName)
	if err == nil {
		logger.InfoKV(ctx, "Using cached tool", "version", version, "dir", dir)
		prependToPath(dir)

		return filepath.Join(dir, shimFilename()), nil
	}

	if !errors.Is(err, toolcache.ErrNotFound) {
		return "", err
	}

	return p.install(ctx)
}

// install downloads the latest release and populates a cache entry.
func (p *Provisioner) install(ctx context.Context) (string, error) {
	javaPath, err := exec.LookPath(runtimeBinary)
	if err != nil {
		return "", fmt.Errorf("%s: %w", runtimeBinary, ErrMissingRuntime)
	}

	warnOnConcurrentPublisher(ctx)

	tag, assets, err := p.source.LatestRelease(ctx)
	if err != nil {
		return "", err
	}

	asset, err := selectJarAsset(tag, assets)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Downloading tool release", "tag", tag, "asset", asset.Name)

	scratch := filepath.Join(os.TempDir(), "play-publisher-"+uuid.NewString())
	if err = os.MkdirAll(scratch, toolcache.DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	downloaded, err := p.download(ctx, asset.DownloadURL, scratch)
	if err != nil {
		return "", err
	}

	dir, err := p.cache.Install(ToolName, tag, func(dir string) error {
		return populateEntry(dir, downloaded, javaPath)
	})
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Tool installed", "tag", tag, "dir", dir)
	prependToPath(dir)

	return filepath.Join(dir, shimFilename()), nil
}

// selectJarAsset finds the single runnable archive among the release assets.
func selectJarAsset(tag string, assets []ReleaseAsset) (ReleaseAsset, error) {
	for _, asset := range assets {
		if strings.HasSuffix(asset.Name, assetSuffix) {
			return asset, nil
		}
	}

	return ReleaseAsset{}, fmt.Errorf("%w: no %s asset in %s/%s release %s",
		ErrToolAcquisitionFailed, assetSuffix, repositoryOwner, repositoryName, tag)
}

// download fetches the asset into the scratch directory. A size-zero
// download is treated as a corrupt transfer, not success.
func (p *Provisioner) download(ctx context.Context, downloadURL, scratch string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	response, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", downloadURL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrToolAcquisitionFailed, downloadURL, response.Status)
	}

	target := filepath.Join(scratch, jarFilename)

	outputFile, err := os.Create(filepath.Clean(target))
	if err != nil {
		return "", fmt.Errorf("create download target: %w", err)
	}

	written, err := io.Copy(outputFile, response.Body)
	if closeErr := outputFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return "", fmt.Errorf("download %s: %w", downloadURL, err)
	}

	if written == 0 {
		return "", fmt.Errorf("%w: empty download from %s", ErrToolAcquisitionFailed, downloadURL)
	}

	return target, nil
}

// populateEntry places the downloaded archive into the cache entry and
// writes the runtime shim next to it.
func populateEntry(dir, downloaded, javaPath string) error {
	data, err := os.ReadFile(filepath.Clean(downloaded))
	if err != nil {
		return fmt.Errorf("read downloaded archive: %w", err)
	}

	options := goupdate.Options{
		TargetPath: filepath.Join(dir, jarFilename),
		TargetMode: DefaultFileMode,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("place archive into cache: %w", err)
	}

	return writeShim(dir, javaPath)
}

// warnOnConcurrentPublisher scans for another running publisher process.
// Concurrent invocations racing to provision the same tool on one host
// are an accepted risk; the scan only makes the race visible in logs.
func warnOnConcurrentPublisher(ctx context.Context) {
	self, err := os.Executable()
	if err != nil {
		return
	}

	processList, err := ps.Processes()
	if err != nil {
		return
	}

	selfName := filepath.Base(self)
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != selfName {
			continue
		}

		logger.WarnKV(ctx, "Another publisher process is running; tool cache writes may race",
			"pid", process.Pid())

		return
	}
}

// prependToPath makes the tool directory resolvable for the remainder
// of the process.
func prependToPath(dir string) {
	_ = os.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
