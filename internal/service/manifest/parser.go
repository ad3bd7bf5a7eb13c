package manifest

import (
	"errors"
	"fmt"
	"regexp"
)

// Fields are the manifest values required to identify a package.
type Fields struct {
	// AppID is the application identifier.
	AppID string
	// VersionCode is the numeric version, as printed by the tool.
	VersionCode string
	// VersionName is the human-readable version.
	VersionName string
}

// Parser extracts identity fields from the textual output of one
// inspection tool family. Keeping a parser per family isolates the two
// output formats and lets them be tested independently.
type Parser interface {
	// Parse extracts the fields or reports which one is missing.
	Parse(output string) (Fields, error)
}

// ErrManifestFieldMissing is returned when a required field is absent
// from the tool output.
var ErrManifestFieldMissing = errors.New("required manifest field missing")

// badgingParser reads `aapt dump badging` output, e.g.
//
//	package: name='com.example.app' versionCode='42' versionName='2.1.0'
//
// aapt quotes values with single quotes; double quotes are tolerated
// since some forks emit them.
type badgingParser struct{}

var (
	badgingAppID       = regexp.MustCompile(`package: name=['"]([^'"]+)['"]`)
	badgingVersionCode = regexp.MustCompile(`versionCode=['"]([^'"]+)['"]`)
	badgingVersionName = regexp.MustCompile(`versionName=['"]([^'"]+)['"]`)
)

// Parse extracts the three identity fields from badging output.
func (badgingParser) Parse(output string) (Fields, error) {
	return extractFields(output, badgingAppID, badgingVersionCode, badgingVersionName)
}

// bundleParser reads `bundletool dump manifest` output, which is the
// manifest XML with double-quoted attributes, e.g.
//
//	<manifest package="com.example.app" android:versionCode="42" ...>
type bundleParser struct{}

var (
	bundleAppID       = regexp.MustCompile(`package=['"]([^'"]+)['"]`)
	bundleVersionCode = regexp.MustCompile(`(?:android:)?versionCode=['"]([^'"]+)['"]`)
	bundleVersionName = regexp.MustCompile(`(?:android:)?versionName=['"]([^'"]+)['"]`)
)

// Parse extracts the three identity fields from a manifest dump.
func (bundleParser) Parse(output string) (Fields, error) {
	return extractFields(output, bundleAppID, bundleVersionCode, bundleVersionName)
}

// extractFields applies the per-field patterns and reports the first
// missing field by name. All three fields are required to build a
// package identity.
func extractFields(output string, appID, versionCode, versionName *regexp.Regexp) (Fields, error) {
	fields := Fields{}

	for _, part := range []struct {
		name    string
		pattern *regexp.Regexp
		target  *string
	}{
		{"package name", appID, &fields.AppID},
		{"version code", versionCode, &fields.VersionCode},
		{"version name", versionName, &fields.VersionName},
	} {
		match := part.pattern.FindStringSubmatch(output)
		if match == nil {
			return Fields{}, fmt.Errorf("%s: %w", part.name, ErrManifestFieldMissing)
		}

		*part.target = match[1]
	}

	return fields, nil
}
