// Package install contains the core domain types of an implementation guide
// installation: the classified submission result, polled task snapshots and
// the final outcome.
package install
