// Package bundletool provisions the bundle-inspection tool on demand.
//
// Resolution checks the local tool cache first and otherwise downloads
// the latest upstream release archive, verifies the Java runtime is
// present, installs the archive with a generated shim, and records the
// install in the cache for later invocations.
package bundletool
