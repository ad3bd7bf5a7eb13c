package release

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ArtifactKind distinguishes the two mutually exclusive primary package formats.
type ArtifactKind string

const (
	// KindAPK marks a release shipped as an APK set.
	KindAPK ArtifactKind = "apk"
	// KindBundle marks a release shipped as a single app bundle.
	KindBundle ArtifactKind = "bundle"
)

// Artifact suffixes recognized by the classifier.
const (
	suffixAPK       = ".apk"
	suffixBundle    = ".aab"
	suffixExpansion = ".obb"
	suffixSymbols   = ".zip"
)

var (
	// ErrEmptyReleaseDirectory is returned when the release directory contains no files.
	ErrEmptyReleaseDirectory = errors.New("release directory contains no files")
	// ErrNoPrimaryArtifact is returned when no APK or bundle candidate is found.
	ErrNoPrimaryArtifact = errors.New("no APK or app bundle found in release directory")
	// ErrConflictingArtifacts is returned when more than one primary candidate is found.
	ErrConflictingArtifacts = errors.New("conflicting primary artifacts in release directory")
)

// AssetSet is the result of classifying a release directory listing.
type AssetSet struct {
	// PrimaryPath is the single APK or bundle to publish.
	PrimaryPath string
	// Kind is the format of the primary artifact.
	Kind ArtifactKind
	// ExpansionFiles are .obb files attached to an APK release.
	ExpansionFiles []string
	// SymbolFiles are deobfuscation archives attached to the release.
	SymbolFiles []string
}

// Classify partitions a flat directory listing into exactly one primary
// package artifact, expansion files and symbol archives. A release is
// either a set of APKs or a single bundle, never both, so finding
// candidates of both kinds is an error.
func Classify(paths []string) (*AssetSet, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyReleaseDirectory
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var (
		primaries []string
		assets    = new(AssetSet)
	)

	for _, path := range sorted {
		switch strings.ToLower(filepath.Ext(path)) {
		case suffixAPK:
			primaries = append(primaries, path)
			assets.PrimaryPath = path
			assets.Kind = KindAPK
		case suffixBundle:
			primaries = append(primaries, path)
			assets.PrimaryPath = path
			assets.Kind = KindBundle
		case suffixExpansion:
			assets.ExpansionFiles = append(assets.ExpansionFiles, path)
		case suffixSymbols:
			assets.SymbolFiles = append(assets.SymbolFiles, path)
		}
	}

	if len(primaries) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrConflictingArtifacts, strings.Join(primaries, ", "))
	}

	if len(primaries) == 0 {
		return nil, ErrNoPrimaryArtifact
	}

	return assets, nil
}
