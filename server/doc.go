// Package server exposes the executor over HTTP using Gin, served over
// HTTP/1.1 and cleartext HTTP/2.
//
// # Endpoints
//
//   - POST /v1/executions: run a command; sync answers with the outcome,
//     async answers 202 with the execution id
//   - GET /v1/executions/:id?wait=2s: outcome, or 202 while running
//   - DELETE /v1/executions/:id: terminate early
//   - GET /health: registry health
//   - GET /version: build information
//
// Successful responses use the {"data": ...} envelope; failures use
// {"error": {"code", "message", "details"}} with the status derived from
// the error code.
//
// # Middleware
//
// Built-in middleware (server/middleware): Recovery, RequestID,
// RequestLogger, BodySizeLimit and per-route Metrics.
package server
