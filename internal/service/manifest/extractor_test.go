package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubResolver returns a fixed tool path.
type stubResolver struct {
	path string
	err  error
}

// Resolve returns the configured path or error.
func (s *stubResolver) Resolve(context.Context) (string, error) {
	return s.path, s.err
}

// writeStubTool creates an executable script printing the given output.
func writeStubTool(t *testing.T, dir, name, output string) string {
	t.Helper()

	dataPath := filepath.Join(dir, name+".out")
	require.NoError(t, os.WriteFile(dataPath, []byte(output), 0o644))

	path := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\ncat %q\n", dataPath)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}

// TestExtract_Bundle runs a stubbed bundletool against an .aab path.
func TestExtract_Bundle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool scripts require a POSIX shell")
	}

	t.Parallel()

	dir := t.TempDir()
	tool := writeStubTool(t, dir, "bundletool", bundleOutput)

	extractor := NewExtractor(&stubResolver{path: tool})

	artifact := filepath.Join(dir, "app-release.aab")
	require.NoError(t, os.WriteFile(artifact, []byte("bundle"), 0o644))

	info, err := extractor.Extract(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, "com.example.app", info.AppID)
	require.Equal(t, "42", info.VersionCode)
	require.Equal(t, "2.1.0", info.VersionName)
	require.Equal(t, artifact, info.Path)

	// Extraction is idempotent on an immutable file.
	again, err := extractor.Extract(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, info, again)
}

// TestExtract_APK resolves aapt from PATH and parses badging output.
func TestExtract_APK(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool scripts require a POSIX shell")
	}

	dir := t.TempDir()
	writeStubTool(t, dir, "aapt", badgingOutput)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	extractor := NewExtractor(&stubResolver{})

	artifact := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(artifact, []byte("apk"), 0o644))

	info, err := extractor.Extract(context.Background(), artifact)
	require.NoError(t, err)
	require.Equal(t, "com.example.app", info.AppID)
}

// TestExtract_ToolFailure verifies a non-zero tool exit is fatal and
// carries the captured output.
func TestExtract_ToolFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool scripts require a POSIX shell")
	}

	t.Parallel()

	dir := t.TempDir()
	tool := filepath.Join(dir, "bundletool")
	script := "#!/bin/sh\necho 'bundle is corrupt' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

	extractor := NewExtractor(&stubResolver{path: tool})

	artifact := filepath.Join(dir, "app.aab")
	require.NoError(t, os.WriteFile(artifact, []byte("bundle"), 0o644))

	_, err := extractor.Extract(context.Background(), artifact)
	require.ErrorIs(t, err, ErrToolExecutionFailed)
	require.ErrorContains(t, err, "bundle is corrupt")
}

// TestExtract_UnsupportedArtifact verifies unknown suffixes are rejected.
func TestExtract_UnsupportedArtifact(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(&stubResolver{})

	_, err := extractor.Extract(context.Background(), "notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedArtifact)
}
