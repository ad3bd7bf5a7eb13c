package bundletool

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
)

// ReleaseAsset describes one downloadable asset of an upstream release.
type ReleaseAsset struct {
	// Name is the asset filename.
	Name string
	// DownloadURL is the direct download location.
	DownloadURL string
}

// ReleaseSource looks up the latest published release of the tool's
// upstream repository.
type ReleaseSource interface {
	// LatestRelease returns the release tag and its assets.
	LatestRelease(ctx context.Context) (string, []ReleaseAsset, error)
}

// githubReleaseSource queries the GitHub releases API.
type githubReleaseSource struct {
	client *github.Client
}

// NewGitHubReleaseSource creates a release source for the bundletool
// repository. The token is optional; without it requests count against
// the anonymous rate limit.
func NewGitHubReleaseSource(token string) ReleaseSource {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &githubReleaseSource{client: client}
}

// LatestRelease fetches the latest published release of google/bundletool.
func (s *githubReleaseSource) LatestRelease(ctx context.Context) (string, []ReleaseAsset, error) {
	rel, _, err := s.client.Repositories.GetLatestRelease(ctx, repositoryOwner, repositoryName)
	if err != nil {
		return "", nil, fmt.Errorf("query latest %s/%s release: %w", repositoryOwner, repositoryName, err)
	}

	assets := make([]ReleaseAsset, 0, len(rel.Assets))
	for _, asset := range rel.Assets {
		assets = append(assets, ReleaseAsset{
			Name:        asset.GetName(),
			DownloadURL: asset.GetBrowserDownloadURL(),
		})
	}

	return rel.GetTagName(), assets, nil
}
