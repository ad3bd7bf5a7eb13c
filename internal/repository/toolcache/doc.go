// Package toolcache implements the persisted cache of provisioned
// inspection tools.
//
// The Repository stores one directory per (tool, version, platform)
// triple outside the working directory, so repeated invocations on the
// same host resolve a tool without downloading it again.
package toolcache
