// Package config holds deeptext's runtime configuration: built-in
// defaults, the optional .deeptext YAML file with per-host settings, and
// the XDG directories used for the history database.
package config
