package publisher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/api/androidpublisher/v3"

	"github.com/oshokin/play-publisher/internal/config"
	"github.com/oshokin/play-publisher/internal/domain/listing"
	"github.com/oshokin/play-publisher/internal/domain/release"
	"github.com/oshokin/play-publisher/internal/logger"
	"github.com/oshokin/play-publisher/internal/service/googleplay"
)

// Expansion file types accepted by the publishing API; an .obb filename
// must start with one of them to be tagged.
const (
	expansionTypeMain  = "main"
	expansionTypePatch = "patch"
)

// deobfuscationTypeProguard is the remote type for .zip symbol archives.
// The archives classified as symbol files here are R8/ProGuard mapping
// bundles; native symbol uploads (nativeCode) never reach this pipeline.
const deobfuscationTypeProguard = "proguard"

var (
	// errVersionCodeMissing is returned when an upload response carries no version code.
	errVersionCodeMissing = errors.New("upload response carries no version code")
	// errUnknownTrack is returned when the target track is not among the package's tracks.
	errUnknownTrack = errors.New("track not found for package")
)

// service drives one edit-session transaction against the remote API.
type service struct {
	api  googleplay.API
	cfg  *config.Config
	meta *listing.Metadata
}

// newService creates the orchestrator for a single publishing run.
func newService(api googleplay.API, cfg *config.Config, meta *listing.Metadata) *service {
	return &service{
		api:  api,
		cfg:  cfg,
		meta: meta,
	}
}

// publish walks the edit session from open to commit. Primary
// transaction failures abort the run; auxiliary uploads (expansion,
// symbol, listing, image) are logged and skipped on failure.
func (s *service) publish(ctx context.Context, info *release.PackageInfo, assets *release.AssetSet) error {
	editID, err := s.api.InsertEdit(ctx, info.AppID)
	if err != nil {
		return fmt.Errorf("open edit: %w", err)
	}

	ctx = logger.WithKV(ctx, "package", info.AppID, "edit_id", editID)
	logger.Info(ctx, "Edit session opened")

	versionCode, err := s.uploadPrimary(ctx, editID, info, assets)
	if err != nil {
		return err
	}

	if assets.Kind == release.KindAPK {
		s.uploadExpansionFiles(ctx, editID, info.AppID, versionCode, assets.ExpansionFiles)
	}

	s.uploadSymbolFiles(ctx, editID, info.AppID, versionCode, assets.SymbolFiles)

	if err = s.updateTrack(ctx, editID, info, versionCode); err != nil {
		return err
	}

	s.updateListings(ctx, editID, info.AppID)

	if err = s.api.ValidateEdit(ctx, info.AppID, editID); err != nil {
		return fmt.Errorf("validate edit: %w", err)
	}

	logger.Info(ctx, "Edit validated, committing")

	if err = s.api.CommitEdit(ctx, info.AppID, editID, s.cfg.ChangesNotSentForReview); err != nil {
		return fmt.Errorf("commit edit: %w", err)
	}

	logger.InfoKV(ctx, "Release committed",
		"track", s.cfg.Track, "version_code", versionCode)

	return nil
}

// uploadPrimary uploads the APK or bundle and returns the version code
// the remote service reported for it. The pipeline cannot proceed
// without knowing what version code it just shipped.
func (s *service) uploadPrimary(ctx context.Context, editID string,
	info *release.PackageInfo, assets *release.AssetSet,
) (int64, error) {
	logger.InfoKV(ctx, "Uploading primary artifact",
		"kind", string(assets.Kind), "file", assets.PrimaryPath)

	var (
		versionCode int64
		err         error
	)

	if assets.Kind == release.KindBundle {
		versionCode, err = s.api.UploadBundle(ctx, info.AppID, editID, assets.PrimaryPath)
	} else {
		versionCode, err = s.api.UploadAPK(ctx, info.AppID, editID, assets.PrimaryPath)
	}

	if err != nil {
		return 0, fmt.Errorf("upload primary artifact: %w", err)
	}

	if versionCode == 0 {
		return 0, errVersionCodeMissing
	}

	return versionCode, nil
}

// uploadExpansionFiles attaches .obb files to the uploaded APK. A file
// matching neither naming convention is skipped with a warning; upload
// failures are logged and do not abort the session.
func (s *service) uploadExpansionFiles(ctx context.Context, editID, packageName string,
	versionCode int64, files []string,
) {
	for _, file := range files {
		expansionType, ok := expansionTypeFor(file)
		if !ok {
			logger.WarnKV(ctx, "Skipping expansion file with unrecognized name",
				"file", file)

			continue
		}

		logger.InfoKV(ctx, "Uploading expansion file", "file", file, "type", expansionType)

		if err := s.api.UploadExpansionFile(ctx, packageName, editID,
			versionCode, expansionType, file); err != nil {
			logger.ErrorKV(ctx, "Expansion file upload failed, continuing",
				"file", file, "error", err)
		}
	}
}

// uploadSymbolFiles attaches deobfuscation archives. These are
// best-effort auxiliary artifacts; failures never abort the session.
func (s *service) uploadSymbolFiles(ctx context.Context, editID, packageName string,
	versionCode int64, files []string,
) {
	for _, file := range files {
		logger.InfoKV(ctx, "Uploading deobfuscation file",
			"file", file, "type", deobfuscationTypeProguard)

		if err := s.api.UploadDeobfuscationFile(ctx, packageName, editID,
			versionCode, deobfuscationTypeProguard, file); err != nil {
			logger.ErrorKV(ctx, "Deobfuscation file upload failed, continuing",
				"file", file, "error", err)
		}
	}
}

// updateTrack reads the target track, merges the new release into it
// per the configured policy and submits the result. An inconsistent
// track state must not proceed to listings or commit.
func (s *service) updateTrack(ctx context.Context, editID string,
	info *release.PackageInfo, versionCode int64,
) error {
	tracks, err := s.api.ListTracks(ctx, info.AppID, editID)
	if err != nil {
		return fmt.Errorf("list tracks: %w", err)
	}

	var target *androidpublisher.Track

	for _, track := range tracks {
		if track.Track == s.cfg.Track {
			target = track
			break
		}
	}

	if target == nil {
		return fmt.Errorf("%s: %w", s.cfg.Track, errUnknownTrack)
	}

	incoming := s.buildRelease(ctx, info, versionCode)

	updated := *target
	updated.Releases = mergeReleases(target.Releases, incoming, s.cfg.TrackMergePolicy)

	logger.InfoKV(ctx, "Updating track",
		"track", s.cfg.Track,
		"policy", string(s.cfg.TrackMergePolicy),
		"release", incoming.Name)

	if err = s.api.UpdateTrack(ctx, info.AppID, editID, &updated); err != nil {
		return fmt.Errorf("update track %s: %w", s.cfg.Track, err)
	}

	return nil
}

// buildRelease constructs the release record to place on the track.
func (s *service) buildRelease(ctx context.Context,
	info *release.PackageInfo, versionCode int64,
) *androidpublisher.TrackRelease {
	name := s.cfg.ReleaseName
	if name == "" {
		name = info.ReleaseLabel()
	}

	rel := &androidpublisher.TrackRelease{
		Name:         name,
		Status:       s.cfg.ReleaseStatus,
		VersionCodes: []int64{versionCode},
	}

	if s.cfg.UserFraction > 0 {
		// A fraction is only meaningful on a staged rollout.
		switch s.cfg.ReleaseStatus {
		case config.StatusInProgress, config.StatusHalted:
			rel.UserFraction = s.cfg.UserFraction
		default:
			logger.WarnKV(ctx, "User fraction ignored for release status",
				"status", s.cfg.ReleaseStatus, "user_fraction", s.cfg.UserFraction)
		}
	}

	if s.cfg.InAppUpdatePriority > 0 {
		rel.InAppUpdatePriority = s.cfg.InAppUpdatePriority
	}

	if s.meta == nil {
		return rel
	}

	for _, note := range s.meta.ReleaseNotes {
		rel.ReleaseNotes = append(rel.ReleaseNotes, &androidpublisher.LocalizedText{
			Language: note.Language,
			Text:     note.Text,
		})
	}

	if s.meta.CountryTargeting != nil {
		rel.CountryTargeting = &androidpublisher.CountryTargeting{
			Countries:          s.meta.CountryTargeting.Countries,
			IncludeRestOfWorld: s.meta.CountryTargeting.IncludeRestOfWorld,
		}
	}

	return rel
}

// updateListings applies store-listing metadata. Each locale's listing
// update and each image upload is attempted independently; metadata is
// cosmetic relative to the binary release, so failures never abort.
func (s *service) updateListings(ctx context.Context, editID, packageName string) {
	if s.meta == nil {
		return
	}

	for _, entry := range s.meta.Listings {
		logger.InfoKV(ctx, "Updating store listing", "language", entry.Language)

		update := &androidpublisher.Listing{
			Language:         entry.Language,
			Title:            entry.Title,
			ShortDescription: entry.ShortDescription,
			FullDescription:  entry.FullDescription,
			Video:            entry.Video,
		}

		if err := s.api.UpdateListing(ctx, packageName, editID, update); err != nil {
			logger.ErrorKV(ctx, "Listing update failed, continuing",
				"language", entry.Language, "error", err)
		}
	}

	for _, image := range s.meta.Images {
		logger.InfoKV(ctx, "Uploading store image",
			"language", image.Language, "type", image.Type, "file", image.Path)

		if err := s.api.UploadImage(ctx, packageName, editID,
			image.Language, image.Type, image.Path); err != nil {
			logger.ErrorKV(ctx, "Image upload failed, continuing",
				"file", image.Path, "error", err)
		}
	}
}

// expansionTypeFor tags an .obb file as main or patch by its filename prefix.
func expansionTypeFor(file string) (string, bool) {
	base := strings.ToLower(filepath.Base(file))

	switch {
	case strings.HasPrefix(base, expansionTypeMain):
		return expansionTypeMain, true
	case strings.HasPrefix(base, expansionTypePatch):
		return expansionTypePatch, true
	default:
		return "", false
	}
}
