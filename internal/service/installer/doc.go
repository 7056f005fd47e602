// Package installer submits an implementation guide package to a FHIR server
// and follows the installation to its end.
//
// Classify and ExtractProgress are pure decision functions over server
// documents. Monitor polls a task at a fixed interval until it completes,
// fails, cannot be fetched or the context is cancelled. Installer sequences
// the whole run and Run wires it to configuration, logging and the console.
package installer
