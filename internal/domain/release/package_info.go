package release

import (
	"fmt"
	"strconv"
)

// PackageInfo records the identity and version of a package artifact.
// It is constructed once per extraction and never mutated.
type PackageInfo struct {
	// AppID is the application identifier declared in the manifest.
	AppID string
	// VersionName is the human-readable version declared in the manifest.
	VersionName string
	// VersionCode is the numeric version declared in the manifest,
	// kept as text exactly as the inspection tool printed it.
	VersionCode string
	// Path is the artifact file the info was extracted from.
	Path string
}

// ReleaseLabel derives a human-readable release name
// from the version code and version name.
func (p *PackageInfo) ReleaseLabel() string {
	return fmt.Sprintf("%s (%s)", p.VersionCode, p.VersionName)
}

// VersionCodeInt64 converts the version code for APIs that take it numerically.
func (p *PackageInfo) VersionCodeInt64() (int64, error) {
	code, err := strconv.ParseInt(p.VersionCode, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version code %q: %w", p.VersionCode, err)
	}

	return code, nil
}

// Clone returns a copy of the package info to avoid leaking internal references.
func (p *PackageInfo) Clone() *PackageInfo {
	if p == nil {
		return nil
	}

	cloned := *p

	return &cloned
}
