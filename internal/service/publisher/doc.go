// Package publisher drives the release-publishing transaction: classify
// the release directory, extract the package identity, open a remote
// edit, upload artifacts, merge the new release into the target track,
// attach optional store-listing metadata, validate and commit.
//
// The state machine is linear. Any primary failure aborts the run and
// abandons the edit, which expires on the remote side; auxiliary
// uploads (expansion, symbol, listing, image) fail soft.
package publisher
