// Package config defines the installer settings and provides helpers to
// load, validate and save them in YAML format.
//
// Settings may also come from a .env file and IG_INSTALLER_* environment
// variables; command-line flags are applied on top by the caller.
package config
