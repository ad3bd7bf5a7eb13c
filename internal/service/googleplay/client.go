package googleplay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// API is the surface of the remote publishing service the orchestrator
// depends on. Every call is scoped to an open edit and mutates it on
// the remote side until the edit is committed or abandoned.
type API interface {
	// InsertEdit opens a new edit for the package and returns its identifier.
	InsertEdit(ctx context.Context, packageName string) (string, error)
	// UploadAPK uploads an APK under the edit and returns its version code.
	UploadAPK(ctx context.Context, packageName, editID, file string) (int64, error)
	// UploadBundle uploads an app bundle under the edit and returns its version code.
	UploadBundle(ctx context.Context, packageName, editID, file string) (int64, error)
	// UploadExpansionFile attaches an expansion file to an uploaded APK.
	UploadExpansionFile(ctx context.Context, packageName, editID string,
		versionCode int64, expansionType, file string) error
	// UploadDeobfuscationFile attaches a deobfuscation archive to an uploaded artifact.
	UploadDeobfuscationFile(ctx context.Context, packageName, editID string,
		versionCode int64, deobfuscationType, file string) error
	// ListTracks returns the package's tracks as known to the edit.
	ListTracks(ctx context.Context, packageName, editID string) ([]*androidpublisher.Track, error)
	// UpdateTrack submits the new state of a track.
	UpdateTrack(ctx context.Context, packageName, editID string, track *androidpublisher.Track) error
	// UpdateListing updates the store listing for one locale.
	UpdateListing(ctx context.Context, packageName, editID string, update *androidpublisher.Listing) error
	// UploadImage uploads a store image for one locale and image type.
	UploadImage(ctx context.Context, packageName, editID, language, imageType, file string) error
	// ValidateEdit asks the service to validate the accumulated edit.
	ValidateEdit(ctx context.Context, packageName, editID string) error
	// CommitEdit commits the edit, making its changes live.
	CommitEdit(ctx context.Context, packageName, editID string, changesNotSentForReview bool) error
}

// Client implements API over the androidpublisher v3 service.
type Client struct {
	service *androidpublisher.Service
}

// Compile-time interface conformance check.
var _ API = (*Client)(nil)

// binaryContentType is the upload content type for APKs and bundles.
const binaryContentType = "application/octet-stream"

// NewClient builds an authenticated publishing client. An explicit
// credentials file wins over the ambient environment variables; the
// client is constructed once at the top of the pipeline and passed to
// every component that needs it.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	service, err := androidpublisher.NewService(ctx, clientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("build publishing client: %w", err)
	}

	return &Client{service: service}, nil
}

// clientOptions resolves credentials from the explicit file or the environment.
func clientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
	}

	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); creds != "" {
		if strings.HasPrefix(creds, "{") {
			return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
		}

		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}

	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); creds != "" {
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}

	return nil
}

// InsertEdit opens a new edit transaction for the package.
func (c *Client) InsertEdit(ctx context.Context, packageName string) (string, error) {
	edit, err := c.service.Edits.Insert(packageName, nil).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert edit for %s: %w", packageName, err)
	}

	return edit.Id, nil
}

// UploadAPK uploads an APK file under the open edit.
func (c *Client) UploadAPK(ctx context.Context, packageName, editID, file string) (int64, error) {
	reader, err := os.Open(filepath.Clean(file))
	if err != nil {
		return 0, fmt.Errorf("open apk: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	apk, err := c.service.Edits.Apks.Upload(packageName, editID).
		Media(reader, googleapi.ContentType(binaryContentType)).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("upload apk %s: %w", file, err)
	}

	return apk.VersionCode, nil
}

// UploadBundle uploads an app bundle file under the open edit.
func (c *Client) UploadBundle(ctx context.Context, packageName, editID, file string) (int64, error) {
	reader, err := os.Open(filepath.Clean(file))
	if err != nil {
		return 0, fmt.Errorf("open bundle: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	bundle, err := c.service.Edits.Bundles.Upload(packageName, editID).
		Media(reader, googleapi.ContentType(binaryContentType)).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("upload bundle %s: %w", file, err)
	}

	return bundle.VersionCode, nil
}

// UploadExpansionFile attaches an expansion file to the uploaded APK version.
func (c *Client) UploadExpansionFile(ctx context.Context, packageName, editID string,
	versionCode int64, expansionType, file string,
) error {
	reader, err := os.Open(filepath.Clean(file))
	if err != nil {
		return fmt.Errorf("open expansion file: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	_, err = c.service.Edits.Expansionfiles.Upload(packageName, editID, versionCode, expansionType).
		Media(reader, googleapi.ContentType(binaryContentType)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("upload %s expansion file %s: %w", expansionType, file, err)
	}

	return nil
}

// UploadDeobfuscationFile attaches a deobfuscation archive to the uploaded version.
func (c *Client) UploadDeobfuscationFile(ctx context.Context, packageName, editID string,
	versionCode int64, deobfuscationType, file string,
) error {
	reader, err := os.Open(filepath.Clean(file))
	if err != nil {
		return fmt.Errorf("open deobfuscation file: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	_, err = c.service.Edits.Deobfuscationfiles.Upload(packageName, editID, versionCode, deobfuscationType).
		Media(reader, googleapi.ContentType(binaryContentType)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("upload %s deobfuscation file %s: %w", deobfuscationType, file, err)
	}

	return nil
}

// ListTracks returns the package's tracks within the edit.
func (c *Client) ListTracks(ctx context.Context, packageName, editID string) ([]*androidpublisher.Track, error) {
	response, err := c.service.Edits.Tracks.List(packageName, editID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list tracks for %s: %w", packageName, err)
	}

	return response.Tracks, nil
}

// UpdateTrack submits the merged release list for a track.
func (c *Client) UpdateTrack(ctx context.Context, packageName, editID string,
	track *androidpublisher.Track,
) error {
	_, err := c.service.Edits.Tracks.Update(packageName, editID, track.Track, track).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update track %s: %w", track.Track, err)
	}

	return nil
}

// UpdateListing updates one locale's store listing under the edit.
func (c *Client) UpdateListing(ctx context.Context, packageName, editID string,
	update *androidpublisher.Listing,
) error {
	_, err := c.service.Edits.Listings.Update(packageName, editID, update.Language, update).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s listing: %w", update.Language, err)
	}

	return nil
}

// UploadImage uploads one localized store image under the edit.
func (c *Client) UploadImage(ctx context.Context, packageName, editID, language, imageType, file string) error {
	reader, err := os.Open(filepath.Clean(file))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	_, err = c.service.Edits.Images.Upload(packageName, editID, language, imageType).
		Media(reader).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("upload %s image %s: %w", imageType, file, err)
	}

	return nil
}

// ValidateEdit asks the service to validate the accumulated edit.
func (c *Client) ValidateEdit(ctx context.Context, packageName, editID string) error {
	if _, err := c.service.Edits.Validate(packageName, editID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("validate edit: %w", err)
	}

	return nil
}

// CommitEdit commits the edit. There is no rollback; an edit that fails
// before this point is abandoned and expires on the remote side.
func (c *Client) CommitEdit(ctx context.Context, packageName, editID string,
	changesNotSentForReview bool,
) error {
	call := c.service.Edits.Commit(packageName, editID).
		ChangesNotSentForReview(changesNotSentForReview)

	if _, err := call.Context(ctx).Do(); err != nil {
		return fmt.Errorf("commit edit: %w", err)
	}

	return nil
}
