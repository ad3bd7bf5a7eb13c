// Package release holds the domain entities of a publishing run: the
// package identity extracted from a binary artifact and the classified
// contents of a release directory.
package release
