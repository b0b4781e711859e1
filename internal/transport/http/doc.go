// Package http contains the chi HTTP handlers for the comparison views,
// dataset management, exports, and health endpoints. Handlers depend on
// narrow service interfaces and report failures as RFC 7807 problem
// documents.
package http
