// Package transport performs the two HTTP calls of an installation against a
// FHIR server: submitting the $install request and fetching a Task.
//
// Responses are returned raw; deciding what a status code or body means is
// left to the caller. Only network level failures are reported as errors.
package transport
