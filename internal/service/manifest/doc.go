// Package manifest extracts package identity from binary artifacts.
//
// APKs are inspected with the system aapt badging dump; app bundles
// with the provisioned bundletool manifest dump. Each tool family has
// its own parser because the two output formats quote and name fields
// differently.
package manifest
