package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClassify_SingleAPK verifies a lone APK becomes the primary artifact.
func TestClassify_SingleAPK(t *testing.T) {
	t.Parallel()

	assets, err := Classify([]string{"app-release.apk"})
	require.NoError(t, err)
	require.Equal(t, KindAPK, assets.Kind)
	require.Equal(t, "app-release.apk", assets.PrimaryPath)
	require.Empty(t, assets.ExpansionFiles)
	require.Empty(t, assets.SymbolFiles)
}

// TestClassify_BundleWithSymbols verifies a bundle plus symbol archive split.
func TestClassify_BundleWithSymbols(t *testing.T) {
	t.Parallel()

	assets, err := Classify([]string{"mapping.zip", "app-release.aab"})
	require.NoError(t, err)
	require.Equal(t, KindBundle, assets.Kind)
	require.Equal(t, "app-release.aab", assets.PrimaryPath)
	require.Equal(t, []string{"mapping.zip"}, assets.SymbolFiles)
}

// TestClassify_APKWithAuxiliaries verifies expansion and symbol files are
// grouped in deterministic sorted order.
func TestClassify_APKWithAuxiliaries(t *testing.T) {
	t.Parallel()

	assets, err := Classify([]string{
		"patch.1.com.example.obb",
		"app.apk",
		"main.1.com.example.obb",
		"mapping.zip",
	})
	require.NoError(t, err)
	require.Equal(t, KindAPK, assets.Kind)
	require.Equal(t, "app.apk", assets.PrimaryPath)
	require.Equal(t, []string{"main.1.com.example.obb", "patch.1.com.example.obb"}, assets.ExpansionFiles)
	require.Equal(t, []string{"mapping.zip"}, assets.SymbolFiles)
}

// TestClassify_Conflicts verifies mutually exclusive and duplicate primaries fail.
func TestClassify_Conflicts(t *testing.T) {
	t.Parallel()

	// APK and bundle together.
	_, err := Classify([]string{"app.apk", "app.aab"})
	require.ErrorIs(t, err, ErrConflictingArtifacts)
	require.ErrorContains(t, err, "app.apk")
	require.ErrorContains(t, err, "app.aab")

	// Two APKs.
	_, err = Classify([]string{"a.apk", "b.apk"})
	require.ErrorIs(t, err, ErrConflictingArtifacts)

	// Two bundles.
	_, err = Classify([]string{"a.aab", "b.aab"})
	require.ErrorIs(t, err, ErrConflictingArtifacts)
}

// TestClassify_EmptyAndNoPrimary verifies the two degenerate listings.
func TestClassify_EmptyAndNoPrimary(t *testing.T) {
	t.Parallel()

	_, err := Classify(nil)
	require.ErrorIs(t, err, ErrEmptyReleaseDirectory)

	_, err = Classify([]string{"readme.txt", "mapping.zip"})
	require.ErrorIs(t, err, ErrNoPrimaryArtifact)
}

// TestClassify_SuffixCaseInsensitive verifies suffix matching ignores case.
func TestClassify_SuffixCaseInsensitive(t *testing.T) {
	t.Parallel()

	assets, err := Classify([]string{"App-Release.APK"})
	require.NoError(t, err)
	require.Equal(t, KindAPK, assets.Kind)
}

// TestPackageInfo_ReleaseLabel verifies the derived release name format.
func TestPackageInfo_ReleaseLabel(t *testing.T) {
	t.Parallel()

	info := &PackageInfo{
		AppID:       "com.example.app",
		VersionName: "2.1.0",
		VersionCode: "42",
	}
	require.Equal(t, "42 (2.1.0)", info.ReleaseLabel())

	code, err := info.VersionCodeInt64()
	require.NoError(t, err)
	require.Equal(t, int64(42), code)

	bad := &PackageInfo{VersionCode: "not-a-number"}
	_, err = bad.VersionCodeInt64()
	require.Error(t, err)
}
