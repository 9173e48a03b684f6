// Package pipeline implements the encode and decode request pipelines:
// validation, profile selection, modem invocation, and container wrapping.
// Both pipelines are stateless; all failures are classified into the
// package's sentinel errors for the gateway to map onto status codes.
package pipeline
