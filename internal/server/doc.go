// Package server implements the HTTP gateway: routing to the encode and
// decode pipelines, request validation and size limits, CORS, and the
// mapping of pipeline failures onto response status codes. It also provides
// the monitoring endpoints (health, config, stats, Prometheus metrics).
package server
