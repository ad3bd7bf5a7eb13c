package listing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalizedText is a piece of text bound to a store locale.
type LocalizedText struct {
	// Language is the BCP-47 locale of the text.
	Language string `json:"language"`
	// Text is the localized content.
	Text string `json:"text"`
}

// CountryTargeting restricts the countries a release is served to.
type CountryTargeting struct {
	// Countries is the list of targeted country codes.
	Countries []string `json:"countries"`
	// IncludeRestOfWorld extends targeting beyond the listed countries.
	IncludeRestOfWorld bool `json:"includeRestOfWorld"`
}

// Listing carries localized store-facing text for one locale.
type Listing struct {
	// Language is the BCP-47 locale of the listing.
	Language string `json:"language"`
	// Title is the store title.
	Title string `json:"title"`
	// ShortDescription is the short store description.
	ShortDescription string `json:"shortDescription"`
	// FullDescription is the full store description.
	FullDescription string `json:"fullDescription"`
	// Video is an optional promo video URL.
	Video string `json:"video"`
}

// Image references a local image file to upload for one locale.
type Image struct {
	// Language is the BCP-47 locale of the image.
	Language string `json:"language"`
	// Type is the store image type (icon, phoneScreenshots, ...).
	Type string `json:"type"`
	// Path is the local file to upload.
	Path string `json:"path"`
}

// Metadata is the optional store-listing payload attached to a run.
// The publisher only normalizes its shape and passes content through.
type Metadata struct {
	// Listings holds one entry per locale to update.
	Listings []Listing
	// ReleaseNotes holds localized notes attached to the release.
	ReleaseNotes []LocalizedText
	// CountryTargeting restricts the release's countries when present.
	CountryTargeting *CountryTargeting
	// Images holds localized image uploads.
	Images []Image
}

// rawMetadata mirrors the JSON input, where listing and releaseNotes
// may be a single object or an array.
type rawMetadata struct {
	Listing          json.RawMessage   `json:"listing"`
	ReleaseNotes     json.RawMessage   `json:"releaseNotes"`
	CountryTargeting *CountryTargeting `json:"countryTargeting"`
	Images           []Image           `json:"images"`
}

// Load reads metadata from the raw input, which is either inline JSON
// (anything starting with "{") or a path to a JSON file.
func Load(raw string) (*Metadata, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	data := []byte(trimmed)

	if !strings.HasPrefix(trimmed, "{") {
		contents, err := os.ReadFile(filepath.Clean(trimmed))
		if err != nil {
			return nil, fmt.Errorf("read metadata file: %w", err)
		}

		data = contents
	}

	return Parse(data)
}

// Parse decodes the metadata JSON and normalizes singular values to slices.
func Parse(data []byte) (*Metadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	listings, err := decodeOneOrMany[Listing](raw.Listing)
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	notes, err := decodeOneOrMany[LocalizedText](raw.ReleaseNotes)
	if err != nil {
		return nil, fmt.Errorf("decode release notes: %w", err)
	}

	return &Metadata{
		Listings:         listings,
		ReleaseNotes:     notes,
		CountryTargeting: raw.CountryTargeting,
		Images:           raw.Images,
	}, nil
}

// decodeOneOrMany accepts either a single JSON object or an array of them.
func decodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var many []T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}

	return []T{one}, nil
}
