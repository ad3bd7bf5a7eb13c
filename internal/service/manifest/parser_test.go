package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const badgingOutput = `package: name='com.example.app' versionCode='42' versionName='2.1.0' platformBuildVersionName=''
sdkVersion:'24'
application-label:'Example'
`

const bundleOutput = `<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.app" android:versionCode="42" android:versionName="2.1.0">
  <application android:label="Example"/>
</manifest>
`

// TestBadgingParser verifies field extraction from aapt badging output.
func TestBadgingParser(t *testing.T) {
	t.Parallel()

	fields, err := badgingParser{}.Parse(badgingOutput)
	require.NoError(t, err)
	require.Equal(t, "com.example.app", fields.AppID)
	require.Equal(t, "42", fields.VersionCode)
	require.Equal(t, "2.1.0", fields.VersionName)
}

// TestBadgingParser_DoubleQuotes verifies the alternate quoting style is tolerated.
func TestBadgingParser_DoubleQuotes(t *testing.T) {
	t.Parallel()

	fields, err := badgingParser{}.Parse(
		`package: name="com.example.app" versionCode="7" versionName="1.0"`)
	require.NoError(t, err)
	require.Equal(t, "com.example.app", fields.AppID)
	require.Equal(t, "7", fields.VersionCode)
	require.Equal(t, "1.0", fields.VersionName)
}

// TestBundleParser verifies field extraction from a bundletool manifest dump.
func TestBundleParser(t *testing.T) {
	t.Parallel()

	fields, err := bundleParser{}.Parse(bundleOutput)
	require.NoError(t, err)
	require.Equal(t, "com.example.app", fields.AppID)
	require.Equal(t, "42", fields.VersionCode)
	require.Equal(t, "2.1.0", fields.VersionName)
}

// TestParsers_MissingFields verifies each absent field is reported by name.
func TestParsers_MissingFields(t *testing.T) {
	t.Parallel()

	_, err := badgingParser{}.Parse("sdkVersion:'24'")
	require.ErrorIs(t, err, ErrManifestFieldMissing)
	require.ErrorContains(t, err, "package name")

	_, err = badgingParser{}.Parse("package: name='com.example.app' versionName='1.0'")
	require.ErrorIs(t, err, ErrManifestFieldMissing)
	require.ErrorContains(t, err, "version code")

	_, err = bundleParser{}.Parse(`<manifest package="com.example.app" android:versionCode="1">`)
	require.ErrorIs(t, err, ErrManifestFieldMissing)
	require.ErrorContains(t, err, "version name")
}

// TestParsers_Idempotent verifies repeated parsing yields identical fields.
func TestParsers_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := badgingParser{}.Parse(badgingOutput)
	require.NoError(t, err)

	second, err := badgingParser{}.Parse(badgingOutput)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
