package publisher

import (
	"google.golang.org/api/androidpublisher/v3"

	"github.com/oshokin/play-publisher/internal/config"
)

// mergeReleases computes the new release list for a track. It is a pure
// function of its inputs: neither slice nor any release is mutated, the
// incoming release appears exactly once, and surviving releases keep
// their relative order.
//
// Under the replace policy the track ends up with only the incoming
// release. Under the append policy prior releases survive, non-terminal
// ones (draft, inProgress) are demoted to halted so no two rollouts
// stay ambiguous, and any prior release sharing a version code with the
// incoming one is dropped.
func mergeReleases(
	existing []*androidpublisher.TrackRelease,
	incoming *androidpublisher.TrackRelease,
	policy config.TrackMergePolicy,
) []*androidpublisher.TrackRelease {
	if policy == config.TrackMergePolicyReplace {
		return []*androidpublisher.TrackRelease{incoming}
	}

	incomingCodes := make(map[int64]struct{}, len(incoming.VersionCodes))
	for _, code := range incoming.VersionCodes {
		incomingCodes[code] = struct{}{}
	}

	merged := make([]*androidpublisher.TrackRelease, 0, len(existing)+1)

	for _, current := range existing {
		if sharesVersionCode(current, incomingCodes) {
			continue
		}

		merged = append(merged, demoteIfActive(current))
	}

	return append(merged, incoming)
}

// sharesVersionCode reports whether the release carries any of the given codes.
func sharesVersionCode(current *androidpublisher.TrackRelease, codes map[int64]struct{}) bool {
	for _, code := range current.VersionCodes {
		if _, found := codes[code]; found {
			return true
		}
	}

	return false
}

// demoteIfActive returns the release unchanged if it is terminal, or a
// halted copy if it is still rolling out. Copying keeps the input pure.
func demoteIfActive(current *androidpublisher.TrackRelease) *androidpublisher.TrackRelease {
	switch current.Status {
	case config.StatusDraft, config.StatusInProgress:
		halted := *current
		halted.Status = config.StatusHalted
		// A halted release keeps the fraction it reached; nothing to adjust.
		return &halted
	default:
		return current
	}
}
