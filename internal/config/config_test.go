package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// validBase returns a configuration that passes validation.
func validBase(t *testing.T) *Config {
	t.Helper()

	cfg := Default()
	cfg.ReleaseDirectory = t.TempDir()
	cfg.CredentialsFile = "service-account.json"

	return cfg
}

// TestValidate checks required fields and range validations for Config.
func TestValidate(t *testing.T) {
	// Not parallel: credential validation consults the environment.

	// Missing release directory.
	cfg := Default()
	cfg.CredentialsFile = "service-account.json"
	require.ErrorIs(t, Validate(cfg), errReleaseDirectoryRequired)

	// Nonexistent release directory.
	cfg = validBase(t)
	cfg.ReleaseDirectory = filepath.Join(cfg.ReleaseDirectory, "missing")
	require.Error(t, Validate(cfg))

	// Unknown status.
	cfg = validBase(t)
	cfg.ReleaseStatus = "published"
	require.ErrorIs(t, Validate(cfg), errUnknownReleaseStatus)

	// Fraction out of range.
	cfg = validBase(t)
	cfg.UserFraction = 1.5
	require.ErrorIs(t, Validate(cfg), errUserFractionOutOfRange)

	// Priority out of range.
	cfg = validBase(t)
	cfg.InAppUpdatePriority = 6
	require.ErrorIs(t, Validate(cfg), errPriorityOutOfRange)

	// Unknown merge policy.
	cfg = validBase(t)
	cfg.TrackMergePolicy = "prepend"
	require.ErrorIs(t, Validate(cfg), errUnknownMergePolicy)

	// Missing credentials.
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")

	cfg = validBase(t)
	cfg.CredentialsFile = ""
	require.ErrorIs(t, Validate(cfg), errCredentialsRequired)

	// Credentials via environment are enough.
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "service-account.json")
	require.NoError(t, Validate(cfg))

	// Fully valid.
	cfg = validBase(t)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTrack, cfg.Track)
	require.Equal(t, StatusCompleted, cfg.ReleaseStatus)
	require.Equal(t, TrackMergePolicyReplace, cfg.TrackMergePolicy)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := Default()
	cfg.ReleaseDirectory = "/builds/release"
	cfg.Track = "beta"
	cfg.ReleaseStatus = StatusInProgress
	cfg.UserFraction = 0.25
	cfg.TrackMergePolicy = TrackMergePolicyAppend

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ReleaseDirectory, loaded.ReleaseDirectory)
	require.Equal(t, cfg.Track, loaded.Track)
	require.Equal(t, cfg.ReleaseStatus, loaded.ReleaseStatus)
	require.InEpsilon(t, cfg.UserFraction, loaded.UserFraction, 1e-9)
	require.Equal(t, cfg.TrackMergePolicy, loaded.TrackMergePolicy)
}

// TestLoad_AppliesDefaults ensures optional fields fall back to defaults.
func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{ReleaseDirectory: "/builds/release"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultTrack, loaded.Track)
	require.Equal(t, StatusCompleted, loaded.ReleaseStatus)
	require.Equal(t, TrackMergePolicyReplace, loaded.TrackMergePolicy)
}
