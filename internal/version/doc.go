// Package version exposes build metadata for ig-installer.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// Full renders them for the `version` subcommand and UserAgent identifies
// the installer in outgoing HTTP requests.
package version
