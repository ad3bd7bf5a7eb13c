package toolcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// Repository manages the on-disk cache of provisioned tools.
// Entries are keyed by tool name, version and host platform so
// subsequent invocations on the same host can skip provisioning.
type Repository struct {
	// root is the cache directory holding all tools.
	root string
	// mu serializes cache access within this process. Two separate
	// processes racing to install the same tool remain an accepted,
	// documented risk.
	mu sync.Mutex
}

const (
	// installedMarker is written last during installation, so a torn
	// install is invisible to readers and gets re-provisioned.
	installedMarker = "installed"

	// cacheDirName is the per-user cache subdirectory for this project.
	cacheDirName = "play-publisher"

	// DefaultDirPermissions is used when creating cache directories.
	DefaultDirPermissions os.FileMode = 0o755
)

// ErrNotFound is returned when no installed version of a tool is cached.
var ErrNotFound = errors.New("tool not found in cache")

// NewRepository creates a repository rooted at the provided directory.
// An empty root falls back to the user cache directory.
func NewRepository(root string) (*Repository, error) {
	if root == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user cache directory: %w", err)
		}

		root = filepath.Join(userCache, cacheDirName)
	}

	return &Repository{root: filepath.Clean(root)}, nil
}

// EntryDir returns the cache directory for a tool version on this platform.
func (r *Repository) EntryDir(tool, version string) string {
	return filepath.Join(r.root, tool, version, platformKey())
}

// Versions lists the installed versions of a tool for this platform.
// Entries without the installed marker are ignored.
func (r *Repository) Versions(tool string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(r.root, tool))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read tool cache: %w", err)
	}

	var versions []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		marker := filepath.Join(r.root, tool, entry.Name(), platformKey(), installedMarker)
		if _, err := os.Stat(marker); err != nil {
			continue
		}

		versions = append(versions, entry.Name())
	}

	if len(versions) == 0 {
		return nil, ErrNotFound
	}

	sort.Strings(versions)

	return versions, nil
}

// Latest returns the installed version with the lexicographically
// greatest version string and its directory. This is an approximation
// of "latest" rather than a semantic-version comparison; callers
// accept that limitation.
func (r *Repository) Latest(tool string) (string, string, error) {
	versions, err := r.Versions(tool)
	if err != nil {
		return "", "", err
	}

	latest := versions[len(versions)-1]

	return latest, r.EntryDir(tool, latest), nil
}

// Install creates the cache entry for a tool version, hands the
// directory to the provided populate function, and marks the entry
// installed only after populate succeeds.
func (r *Repository) Install(tool, version string, populate func(dir string) error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.EntryDir(tool, version)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("create cache entry: %w", err)
	}

	if err := populate(dir); err != nil {
		return "", err
	}

	marker := filepath.Join(dir, installedMarker)
	if err := os.WriteFile(marker, []byte(version), 0o600); err != nil {
		return "", fmt.Errorf("write install marker: %w", err)
	}

	return dir, nil
}

// platformKey identifies the host platform a cached tool was installed for.
func platformKey() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}
