// Package app assembles the application: configuration, logging,
// telemetry, services, and the HTTP router, with graceful shutdown.
package app
