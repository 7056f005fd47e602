// Package fhir models the handful of FHIR resources exchanged with the
// server: the Parameters envelope of the $install operation, the Task used
// to track asynchronous work and the OperationOutcome used to report issues.
//
// Decode dispatches on the resourceType discriminator and never inspects
// fields of resource types it does not know.
package fhir
