// Package internal documents the events API server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, and routing
// - domain: the event model and service
// - storage: database access and repositories (pgx + Postgres)
// - config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
