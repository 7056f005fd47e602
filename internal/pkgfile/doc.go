// Package pkgfile reads the NPM package submitted to the server and
// fingerprints it with a SHA-512 digest for the logs.
package pkgfile
