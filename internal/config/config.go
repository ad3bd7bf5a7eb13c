package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TrackMergePolicy selects how a new release is combined with the
// releases already present on the target track.
type TrackMergePolicy string

const (
	// TrackMergePolicyReplace swaps the track's release list for a
	// singleton containing only the new release.
	TrackMergePolicyReplace TrackMergePolicy = "replace"
	// TrackMergePolicyAppend keeps prior releases, demotes non-terminal
	// ones to halted, and appends the new release last.
	TrackMergePolicyAppend TrackMergePolicy = "append"
)

// Release statuses accepted by the publishing API.
const (
	StatusDraft      = "draft"
	StatusInProgress = "inProgress"
	StatusCompleted  = "completed"
	StatusHalted     = "halted"
)

// Config holds publishing parameters for a single run.
type Config struct {
	// ReleaseDirectory is the directory containing the build artifacts to publish.
	ReleaseDirectory string `yaml:"release_directory"`
	// ReleaseName overrides the release name derived from the package version.
	ReleaseName string `yaml:"release_name"`
	// Track is the distribution track receiving the release.
	Track string `yaml:"track"`
	// ReleaseStatus is the status assigned to the new release.
	ReleaseStatus string `yaml:"release_status"`
	// UserFraction is the staged rollout fraction, honored only for
	// inProgress and halted releases.
	UserFraction float64 `yaml:"user_fraction"`
	// InAppUpdatePriority is the in-app update priority of the release (0-5).
	InAppUpdatePriority int64 `yaml:"in_app_update_priority"`
	// Metadata is inline JSON or a path to a JSON file with store-listing metadata.
	Metadata string `yaml:"metadata"`
	// ChangesNotSentForReview asks the commit not to auto-submit changes for review.
	ChangesNotSentForReview bool `yaml:"changes_not_sent_for_review"`
	// CredentialsFile is the path to the service-account key file.
	CredentialsFile string `yaml:"credentials_file"`
	// TrackMergePolicy selects the release-list merge behavior.
	TrackMergePolicy TrackMergePolicy `yaml:"track_merge_policy"`
	// ToolCacheDir overrides the directory where provisioned tools are cached.
	ToolCacheDir string `yaml:"tool_cache_dir"`
	// LogLevel is the minimum level for console output.
	LogLevel string `yaml:"log_level"`
	// GitHubToken authenticates release lookups during tool provisioning.
	// It is read from the environment and never persisted to YAML.
	GitHubToken string `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for publishing settings.
	DefaultConfigFilename = "play-publisher-settings.yaml"

	// DefaultTrack is the track used when none is configured.
	DefaultTrack = "internal"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// maxInAppUpdatePriority is the highest priority accepted by the API.
	maxInAppUpdatePriority = 5
)

// Environment variables consulted when the corresponding field is empty.
const (
	credentialsFileEnv = "GOOGLE_APPLICATION_CREDENTIALS"
	credentialsJSONEnv = "GOOGLE_APPLICATION_CREDENTIALS_JSON"
	githubTokenEnv     = "GITHUB_TOKEN"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errReleaseDirectoryRequired is returned when the release directory is missing.
	errReleaseDirectoryRequired = errors.New("release directory must be provided")
	// errReleaseDirectoryInvalid is returned when the release directory is not a directory.
	errReleaseDirectoryInvalid = errors.New("release directory is not a directory")
	// errUnknownReleaseStatus is returned for a status outside the accepted enum.
	errUnknownReleaseStatus = errors.New("unknown release status")
	// errUserFractionOutOfRange is returned when the rollout fraction is not within [0, 1].
	errUserFractionOutOfRange = errors.New("user fraction must be between 0 and 1")
	// errPriorityOutOfRange is returned when the update priority is not within [0, 5].
	errPriorityOutOfRange = errors.New("in-app update priority must be between 0 and 5")
	// errUnknownMergePolicy is returned for a merge policy outside the accepted enum.
	errUnknownMergePolicy = errors.New("unknown track merge policy")
	// errCredentialsRequired is returned when no credential source is available.
	errCredentialsRequired = errors.New("service account credentials must be provided")
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	return &Config{
		Track:            DefaultTrack,
		ReleaseStatus:    StatusCompleted,
		TrackMergePolicy: TrackMergePolicyReplace,
	}
}

// Load reads configuration from the provided path and applies defaults
// for optional fields. Validation is a separate step so callers can
// overlay command-line flags first.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and ranges.
// All violations here are reported before any remote call is attempted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.ReleaseDirectory == "" {
		return errReleaseDirectoryRequired
	}

	info, err := os.Stat(cfg.ReleaseDirectory)
	if err != nil {
		return fmt.Errorf("release directory %s: %w", cfg.ReleaseDirectory, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", cfg.ReleaseDirectory, errReleaseDirectoryInvalid)
	}

	switch cfg.ReleaseStatus {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusHalted:
	default:
		return fmt.Errorf("%s: %w", cfg.ReleaseStatus, errUnknownReleaseStatus)
	}

	if cfg.UserFraction < 0 || cfg.UserFraction > 1 {
		return fmt.Errorf("%g: %w", cfg.UserFraction, errUserFractionOutOfRange)
	}

	if cfg.InAppUpdatePriority < 0 || cfg.InAppUpdatePriority > maxInAppUpdatePriority {
		return fmt.Errorf("%d: %w", cfg.InAppUpdatePriority, errPriorityOutOfRange)
	}

	switch cfg.TrackMergePolicy {
	case TrackMergePolicyReplace, TrackMergePolicyAppend:
	default:
		return fmt.Errorf("%s: %w", cfg.TrackMergePolicy, errUnknownMergePolicy)
	}

	if cfg.CredentialsFile == "" &&
		os.Getenv(credentialsFileEnv) == "" &&
		os.Getenv(credentialsJSONEnv) == "" {
		return errCredentialsRequired
	}

	return nil
}

// applyDefaults fills optional fields from defaults and the environment.
func applyDefaults(cfg *Config) {
	if cfg.Track == "" {
		cfg.Track = DefaultTrack
	}

	if cfg.ReleaseStatus == "" {
		cfg.ReleaseStatus = StatusCompleted
	}

	if cfg.TrackMergePolicy == "" {
		cfg.TrackMergePolicy = TrackMergePolicyReplace
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv(githubTokenEnv)
	}
}
