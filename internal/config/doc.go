// Package config defines publishing settings for the play-publisher binary
// and provides helpers to load, validate and save them in YAML format.
//
// Settings come from a YAML file, command-line flag overlays, and a few
// well-known environment variables for credentials.
package config
